// services/humidistat/humidistat.go
//
// Bang-bang humidity control with hysteresis. The service consumes humidity
// values published by the HAL, decides a desired switch level and drives a
// GPIO capability (atomizer/fan power) through HAL control requests.
//
// Safety behaviour: the output is forced off when humidity samples go stale
// or when the configured tank-low input reports empty.
package humidistat

import (
	"context"
	"encoding/json"
	"time"

	"envcode-go/bus"
	"envcode-go/types"
	"envcode-go/x/mathx"
	"envcode-go/x/timex"
)

// Config arrives retained on config/humidistat. Humidity is handled in
// deci-percent RH (550 = 55.0 %RH) to stay integer-only.
type Config struct {
	TargetDeciPct int  `json:"target_deci_pct"`
	BandDeciPct   int  `json:"band_deci_pct,omitempty"`
	SwitchID      int  `json:"switch_id"`
	HumidityID    int  `json:"humidity_id"`
	TankLowID     *int `json:"tank_low_id,omitempty"`
	StaleMS       int  `json:"stale_ms,omitempty"`
	MinHoldMS     int  `json:"min_hold_ms,omitempty"`
}

const (
	defaultBandDeciPct = 40 // +/- 2.0 %RH around the target
	defaultStaleMS     = 30_000
	defaultMinHoldMS   = 5_000
	controlTimeout     = 500 * time.Millisecond
)

// decide applies the hysteresis band: switch on at or below the low
// threshold, off at or above the high one, hold in between.
func decide(on bool, rhDeci, targetDeci, bandDeci int) bool {
	switch {
	case rhDeci <= targetDeci-bandDeci/2:
		return true
	case rhDeci >= targetDeci+bandDeci/2:
		return false
	default:
		return on
	}
}

// rhDeciFromQ2210 converts the HAL's Q22.10 %RH fixed-point payload to
// deci-percent, rounding to nearest.
func rhDeciFromQ2210(q uint32) int {
	return int(mathx.RoundDiv(q*10, 1024))
}

func Run(ctx context.Context, conn *bus.Connection) {
	s := &runner{conn: conn}
	s.loop(ctx)
}

type runner struct {
	conn *bus.Connection
	cfg  Config
	have bool

	on         bool
	inhibited  bool
	lastSwitch time.Time
}

func (s *runner) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.Topic{"config", "humidistat"})
	valSub := s.conn.Subscribe(bus.Topic{"hal", "capability", "humidity", "+", "value"})
	evSub := s.conn.Subscribe(bus.Topic{"hal", "capability", "gpio", "+", "event"})
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(valSub)
	defer s.conn.Unsubscribe(evSub)

	stale := time.NewTimer(time.Hour)
	defer stale.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-cfgSub.Channel():
			var cfg Config
			if err := decodeJSON(m.Payload, &cfg); err != nil || cfg.SwitchID < 0 {
				s.publishState(ctx, 0, "bad_config")
				continue
			}
			if cfg.BandDeciPct <= 0 {
				cfg.BandDeciPct = defaultBandDeciPct
			}
			if cfg.StaleMS <= 0 {
				cfg.StaleMS = defaultStaleMS
			}
			if cfg.MinHoldMS <= 0 {
				cfg.MinHoldMS = defaultMinHoldMS
			}
			cfg.TargetDeciPct = mathx.Clamp(cfg.TargetDeciPct, 0, 1000)
			s.cfg = cfg
			s.have = true
			resetAfter(stale, time.Duration(cfg.StaleMS)*time.Millisecond)
			s.publishState(ctx, 0, "configured")

		case m := <-valSub.Channel():
			if !s.have {
				continue
			}
			id, ok := topicID(m.Topic)
			if !ok || id != s.cfg.HumidityID {
				continue
			}
			q, ok := q2210FromPayload(m.Payload)
			if !ok {
				continue
			}
			resetAfter(stale, time.Duration(s.cfg.StaleMS)*time.Millisecond)
			rh := rhDeciFromQ2210(q)
			want := decide(s.on, rh, s.cfg.TargetDeciPct, s.cfg.BandDeciPct)
			if s.inhibited {
				want = false
			}
			if want != s.on && s.holdElapsed() {
				if s.setSwitch(ctx, want) {
					s.on = want
					s.lastSwitch = time.Now()
				}
			}
			s.publishState(ctx, rh, "ok")

		case m := <-evSub.Channel():
			if !s.have || s.cfg.TankLowID == nil {
				continue
			}
			id, ok := topicID(m.Topic)
			if !ok || id != *s.cfg.TankLowID {
				continue
			}
			lvl, ok := levelFromPayload(m.Payload)
			if !ok {
				continue
			}
			// The float switch reads low when the tank is empty.
			s.inhibited = lvl == 0
			if s.inhibited && s.on {
				if s.setSwitch(ctx, false) {
					s.on = false
					s.lastSwitch = time.Now()
				}
				s.publishState(ctx, 0, "tank_empty")
			}

		case <-stale.C:
			if !s.have {
				stale.Reset(time.Hour)
				continue
			}
			// Sensor went quiet; fail safe.
			if s.on {
				if s.setSwitch(ctx, false) {
					s.on = false
					s.lastSwitch = time.Now()
				}
			}
			s.publishState(ctx, 0, "stale")
			stale.Reset(time.Duration(s.cfg.StaleMS) * time.Millisecond)
		}
	}
}

// holdElapsed rate-limits relay transitions.
func (s *runner) holdElapsed() bool {
	if s.lastSwitch.IsZero() {
		return true
	}
	return time.Since(s.lastSwitch) >= time.Duration(s.cfg.MinHoldMS)*time.Millisecond
}

func (s *runner) setSwitch(ctx context.Context, level bool) bool {
	lvl := 0
	if level {
		lvl = 1
	}
	req := s.conn.NewMessage(
		bus.Topic{"hal", "capability", "gpio", s.cfg.SwitchID, "control", "set"},
		map[string]any{"level": lvl}, false)
	rctx, cancel := context.WithTimeout(ctx, controlTimeout)
	defer cancel()
	_, err := s.conn.RequestWait(rctx, req)
	return err == nil
}

func (s *runner) publishState(ctx context.Context, rhDeci int, status string) {
	s.conn.Publish(s.conn.NewMessage(bus.Topic{"humidistat", "state"}, map[string]any{
		"on":              s.on,
		"inhibited":       s.inhibited,
		"rh_deci_pct":     rhDeci,
		"target_deci_pct": s.cfg.TargetDeciPct,
		"status":          status,
		"ts_ms":           timex.NowMs(),
	}, true))
}

// ---- payload/topic helpers ----

func topicID(t bus.Topic) (int, bool) {
	if len(t) < 4 {
		return 0, false
	}
	switch v := t[3].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func q2210FromPayload(p any) (uint32, bool) {
	if v, ok := p.(types.HumidityValue); ok {
		return v.Q2210RH, true
	}
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := m["q2210_rh"].(type) {
	case uint32:
		return v, true
	case int:
		return uint32(v), true
	case int64:
		return uint32(v), true
	case float64:
		return uint32(v), true
	default:
		return 0, false
	}
}

func levelFromPayload(p any) (int, bool) {
	m, ok := p.(map[string]any)
	if !ok {
		return 0, false
	}
	switch v := m["level"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func resetAfter(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
