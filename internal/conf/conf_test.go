package conf

import (
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
)

func TestDurationUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{`{"timeout":"5s"}`, 5 * time.Second},
		{`{"timeout":"1m30s"}`, 90 * time.Second},
		{`{"timeout":2}`, 2 * time.Second},
		{`{"timeout":0.5}`, 500 * time.Millisecond},
		{`{"timeout":null}`, 0},
	}
	for _, c := range cases {
		var s Server_HTTP
		if err := jsoniter.Unmarshal([]byte(c.in), &s); err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if got := s.Timeout.AsDuration(); got != c.want {
			t.Errorf("%s: got %v want %v", c.in, got, c.want)
		}
	}

	var s Server_HTTP
	if err := jsoniter.Unmarshal([]byte(`{"timeout":"five"}`), &s); err == nil {
		t.Error("非法时长应报错")
	}
}

func TestSimDefaults(t *testing.T) {
	var c *Sim
	c = c.Defaults()
	if c.MaxWorkers != 64 || c.MaxRunning != 1 || c.ShardSize != 1000 {
		t.Errorf("defaults %+v", c)
	}
	if c.Retention.AsDuration() != 24*time.Hour || c.Chart == nil || c.Notify == nil {
		t.Errorf("nested defaults missing")
	}
	c2 := (&Sim{MaxWorkers: 8}).Defaults()
	if c2.MaxWorkers != 8 {
		t.Errorf("explicit value overwritten: %d", c2.MaxWorkers)
	}
}
