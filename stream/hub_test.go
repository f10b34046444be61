package stream

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/sim"
)

var _ Controller = (*sim.Engine)(nil)
var _ sim.Presenter = (*Hub)(nil)

type fakeController struct {
	calls chan string
}

func newFakeController() *fakeController {
	return &fakeController{calls: make(chan string, 16)}
}

func (f *fakeController) Start() { f.calls <- "start" }
func (f *fakeController) Pause() { f.calls <- "pause" }
func (f *fakeController) Reset() { f.calls <- "reset" }
func (f *fakeController) AddParticles(g config.SpawnGroup) {
	f.calls <- "add " + g.Species
}
func (f *fakeController) RemoveParticles(species string, n int) {
	f.calls <- "remove " + species
}
func (f *fakeController) SetTemperature(t float64) { f.calls <- "temperature" }

func (f *fakeController) next(t *testing.T) string {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller call")
		return ""
	}
}

// connect starts a hub behind a test server and dials one client. The hello
// message is consumed so the client is registered on return.
func connect(t *testing.T, ctrl Controller, opts Options) (*Hub, *websocket.Conn) {
	t.Helper()
	opts.Hello = map[string]string{"name": "test"}
	opts.Logger = slog.New(slog.DiscardHandler)

	hub, err := NewHub(ctrl, opts)
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	srv := httptest.NewServer(hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		hub.Close()
		srv.Close()
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		hub.Close()
		srv.Close()
	})

	if env := readEnvelope(t, conn); env.Type != TypeHello {
		t.Fatalf("first message type = %q, want %q", env.Type, TypeHello)
	}
	return hub, conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return env
}

func TestNewHub_Defaults(t *testing.T) {
	hub, err := NewHub(newFakeController(), Options{})
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	defer hub.Close()

	if hub.everyN != 1 {
		t.Errorf("everyN = %d, want 1", hub.everyN)
	}
	if cap(hub.broadcast) != 64 {
		t.Errorf("buffer = %d, want 64", cap(hub.broadcast))
	}
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", hub.Clients())
	}
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub, err := NewHub(newFakeController(), Options{})
	if err != nil {
		t.Fatalf("NewHub: %v", err)
	}
	if err := hub.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := hub.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Presenting after close must not block or panic.
	hub.Present(sim.TickReport{Tick: 1})
}

func TestHub_BroadcastsTicks(t *testing.T) {
	hub, conn := connect(t, newFakeController(), Options{})

	if hub.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", hub.Clients())
	}

	hub.Present(sim.TickReport{
		Tick:   5,
		Counts: sim.AggregateCounts{"A": 3},
	})

	env := readEnvelope(t, conn)
	if env.Type != TypeTick {
		t.Fatalf("type = %q, want %q", env.Type, TypeTick)
	}
	if env.Tick != 5 || env.Report == nil || env.Report.Tick != 5 {
		t.Errorf("tick = %d report = %+v, want 5", env.Tick, env.Report)
	}
	if env.Report.Counts["A"] != 3 {
		t.Errorf("counts[A] = %d, want 3", env.Report.Counts["A"])
	}
}

func TestHub_EveryN(t *testing.T) {
	hub, conn := connect(t, newFakeController(), Options{EveryN: 3})

	for tick := int64(0); tick < 7; tick++ {
		hub.Present(sim.TickReport{Tick: tick})
	}

	for _, want := range []int64{0, 3, 6} {
		env := readEnvelope(t, conn)
		if env.Type != TypeTick || env.Tick != want {
			t.Errorf("got %s tick %d, want tick %d", env.Type, env.Tick, want)
		}
	}
}

func TestHub_PublishCounts(t *testing.T) {
	hub, conn := connect(t, newFakeController(), Options{})

	hub.PublishCounts(12, sim.AggregateCounts{"A": 1, "B": 0})

	env := readEnvelope(t, conn)
	if env.Type != TypeCounts {
		t.Fatalf("type = %q, want %q", env.Type, TypeCounts)
	}
	if env.Tick != 12 || env.Counts["A"] != 1 {
		t.Errorf("got tick %d counts %v", env.Tick, env.Counts)
	}
}

func TestHub_ForwardsControlMessages(t *testing.T) {
	ctrl := newFakeController()
	_, conn := connect(t, ctrl, Options{})

	temp := 450.0
	msgs := []ClientMessage{
		{Type: CmdStart},
		{Type: CmdAdd, Species: "A", Count: 5},
		{Type: CmdRemove, Species: "B", Count: 2},
		{Type: CmdTemperature, Temperature: &temp},
		{Type: CmdPause},
		{Type: CmdReset},
	}
	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
	}

	want := []string{"start", "add A", "remove B", "temperature", "pause", "reset"}
	for _, w := range want {
		if got := ctrl.next(t); got != w {
			t.Errorf("call = %q, want %q", got, w)
		}
	}
}

func TestHub_UnknownCommandReplies(t *testing.T) {
	_, conn := connect(t, newFakeController(), Options{})

	if err := conn.WriteJSON(ClientMessage{Type: "explode"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Type != TypeError {
		t.Fatalf("type = %q, want %q", env.Type, TypeError)
	}
	if !strings.Contains(env.Error, "explode") {
		t.Errorf("error %q does not name the command", env.Error)
	}
}

func TestHub_TickCarriesColors(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	engine, err := sim.New(cfg, sim.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	hub, conn := connect(t, engine, Options{})

	hub.Present(engine.AdvanceTick())

	env := readEnvelope(t, conn)
	if env.Report == nil || len(env.Report.Particles) == 0 {
		t.Fatalf("report without particles: %+v", env.Report)
	}
	cat := engine.Catalog()
	for _, p := range env.Report.Particles {
		i, ok := cat.Lookup(p.Species)
		if !ok {
			t.Fatalf("particle %d has unknown species %q", p.ID, p.Species)
		}
		if want := cat.At(i).Color; p.Color != want {
			t.Errorf("particle %d color = %v, want %v", p.ID, p.Color, want)
		}
		if p.Color.A == 0 {
			t.Errorf("particle %d color is transparent", p.ID)
		}
	}
}

func TestClientMessage_AddIsCapped(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	engine, err := sim.New(cfg, sim.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}

	msg := ClientMessage{Type: CmdAdd, Species: "A", Count: 2_000_000}
	if err := msg.Apply(engine); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	engine.AdvanceTick()

	if got, want := engine.Counts().Total(), cfg.Physics.MaxParticles; got != want {
		t.Errorf("total = %d, want cap %d", got, want)
	}
}

func TestClientMessage_Apply(t *testing.T) {
	tests := []struct {
		name    string
		msg     ClientMessage
		want    string
		wantErr bool
	}{
		{"start", ClientMessage{Type: CmdStart}, "start", false},
		{"add", ClientMessage{Type: CmdAdd, Species: "C", Count: 1}, "add C", false},
		{"add without species", ClientMessage{Type: CmdAdd, Count: 1}, "", true},
		{"remove without species", ClientMessage{Type: CmdRemove}, "", true},
		{"temperature without value", ClientMessage{Type: CmdTemperature}, "", true},
		{"unknown", ClientMessage{Type: "nope"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController()
			err := tt.msg.Apply(ctrl)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if len(ctrl.calls) != 0 {
					t.Errorf("controller called on error")
				}
				return
			}
			if got := ctrl.next(t); got != tt.want {
				t.Errorf("call = %q, want %q", got, tt.want)
			}
		})
	}

	err := ClientMessage{Type: "nope"}.Apply(newFakeController())
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("error = %v, want ErrUnknownCommand", err)
	}
}
