package live

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	ws "github.com/gorilla/websocket"

	"staffattendance/internal/attendance"
	"staffattendance/internal/calendar"
)

type frame struct {
	Type    string `json:"type"`
	Payload struct {
		Data   []attendance.Record `json:"data"`
		Record attendance.Record   `json:"record"`
		Total  int                 `json:"total"`
	} `json:"payload"`
}

func read(t *testing.T, conn *ws.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var f frame
	if err := sonic.ConfigStd.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestInitThenBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(log.New(io.Discard, "", 0))
	go hub.Run(ctx)

	first := attendance.Record{ID: 1, Name: "Ali", Date: "2024-03-20", CheckInTime: "08:00", Status: calendar.OnTime}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, []attendance.Record{first})
	}))
	defer srv.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	initFrame := read(t, conn)
	if initFrame.Type != TypeInit || len(initFrame.Payload.Data) != 1 || initFrame.Payload.Data[0] != first {
		t.Fatalf("init frame = %+v", initFrame)
	}

	// the init frame is only written once the client is registered
	jane := attendance.Record{ID: 2, Name: "Jane", Date: "2024-03-20", CheckInTime: "09:15", Status: calendar.Late}
	hub.BroadcastCheckIn(jane, 2)
	got := read(t, conn)
	if got.Type != TypeNew || got.Payload.Record != jane || got.Payload.Total != 2 {
		t.Fatalf("new frame = %+v", got)
	}
}
