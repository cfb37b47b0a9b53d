package pool

import (
	"net/http"
	"testing"
	"time"
)

type stubPool struct{ client *http.Client }

func (s stubPool) GetHTTPClient() *http.Client { return s.client }

func TestNewAppliesConfig(t *testing.T) {
	p := New(&Config{MaxIdleConns: 7, MaxIdleConnsPerHost: 3, IdleConnTimeout: time.Second, Timeout: 2 * time.Second})
	c := p.GetHTTPClient()
	if c.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport is %T, want *http.Transport", c.Transport)
	}
	if tr.MaxIdleConns != 7 || tr.MaxIdleConnsPerHost != 3 {
		t.Errorf("idle conns = %d/%d, want 7/3", tr.MaxIdleConns, tr.MaxIdleConnsPerHost)
	}
	if tr.TLSClientConfig.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should default to false")
	}
}

func TestGetConfigDefault(t *testing.T) {
	if got, want := GetConfig(), *DefaultConfig(); got != want {
		t.Errorf("GetConfig() = %+v, want %+v", got, want)
	}
}

func TestSetPool(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}
	SetPool(stubPool{client: custom})
	defer SetPool(nil)

	if got := GetPool().GetHTTPClient(); got != custom {
		t.Error("GetPool did not return the injected pool")
	}
}

func TestGetPoolCreatesDefault(t *testing.T) {
	SetPool(nil)
	p := GetPool()
	if p == nil || p.GetHTTPClient() == nil {
		t.Fatal("GetPool returned no client")
	}
	if GetPool() != p {
		t.Error("GetPool should return the same pool on every call")
	}
}
