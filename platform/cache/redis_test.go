package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type redisCfg struct {
	url      string
	insecure bool
}

func (c redisCfg) GetRedisURL() string       { return c.url }
func (c redisCfg) GetRedisTLSInsecure() bool { return c.insecure }

func TestOptionsRequiresURL(t *testing.T) {
	if _, err := Options(redisCfg{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOptionsInsecureTLS(t *testing.T) {
	opt, err := Options(redisCfg{url: "rediss://localhost:6380/0", insecure: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure tls config")
	}
}

func TestNewRedisClientPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), redisCfg{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := NewHealth(client).Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}
}
