package stream

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for s.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", s.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestServerSendsSceneOnConnect(t *testing.T) {
	s := startTestServer(t)
	s.SetScene(Scene{
		Solver: "parallel",
		Bodies: []BodyTopology{{Name: "beam-0", Particles: 8, Edges: []int32{0, 1}}},
	})

	conn := dial(t, s)

	var scene Scene
	if err := conn.ReadJSON(&scene); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if scene.Type != "scene" {
		t.Errorf("Type = %q, want scene", scene.Type)
	}
	if scene.Solver != "parallel" {
		t.Errorf("Solver = %q, want parallel", scene.Solver)
	}
	if len(scene.Bodies) != 1 || scene.Bodies[0].Name != "beam-0" {
		t.Errorf("unexpected bodies: %+v", scene.Bodies)
	}
}

func TestServerBroadcastsFrames(t *testing.T) {
	s := startTestServer(t)
	s.SetScene(Scene{Solver: "sequential"})

	conn := dial(t, s)
	var scene Scene
	if err := conn.ReadJSON(&scene); err != nil {
		t.Fatalf("scene read: %v", err)
	}
	waitForClients(t, s, 1)

	s.Broadcast(Frame{
		Tick:   42,
		Solver: "sequential",
		Bodies: []BodyFrame{{Name: "tet", Positions: [][3]float64{{1, 2, 3}}}},
	})

	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("frame read: %v", err)
	}
	if frame.Type != "frame" || frame.Tick != 42 {
		t.Errorf("got type %q tick %d, want frame 42", frame.Type, frame.Tick)
	}
	if len(frame.Bodies) != 1 || frame.Bodies[0].Positions[0] != [3]float64{1, 2, 3} {
		t.Errorf("unexpected frame bodies: %+v", frame.Bodies)
	}
}

func TestServerQueuesCommands(t *testing.T) {
	s := startTestServer(t)
	s.SetScene(Scene{})

	conn := dial(t, s)
	var scene Scene
	if err := conn.ReadJSON(&scene); err != nil {
		t.Fatalf("scene read: %v", err)
	}

	if got := s.DrainCommands(); got != nil {
		t.Fatalf("DrainCommands before any input = %+v, want nil", got)
	}

	if err := conn.WriteJSON(Command{Action: "squash"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := conn.WriteJSON(Command{Params: map[string]float64{"gravity": -5}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var cmds []Command
	for len(cmds) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for commands, got %d", len(cmds))
		}
		cmds = append(cmds, s.DrainCommands()...)
		time.Sleep(time.Millisecond)
	}

	if cmds[0].Action != "squash" {
		t.Errorf("first command action = %q, want squash", cmds[0].Action)
	}
	if got := cmds[1].Params["gravity"]; got != -5 {
		t.Errorf("gravity param = %v, want -5", got)
	}
}

func TestServerDropsClosedClients(t *testing.T) {
	s := startTestServer(t)
	s.SetScene(Scene{})

	conn := dial(t, s)
	var scene Scene
	if err := conn.ReadJSON(&scene); err != nil {
		t.Fatalf("scene read: %v", err)
	}
	waitForClients(t, s, 1)

	conn.Close()
	waitForClients(t, s, 0)

	// Broadcasting into an empty client set must not panic.
	s.Broadcast(Frame{Tick: 1})
}
