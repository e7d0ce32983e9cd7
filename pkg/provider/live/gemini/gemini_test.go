package gemini_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/maitri-mission/maitri/pkg/provider/live"
	"github.com/maitri-mission/maitri/pkg/provider/live/gemini"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

// wsURL converts an httptest server HTTP URL to a WebSocket URL.
func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// startGeminiServer launches a test WebSocket server. The handler function
// receives the accepted *websocket.Conn. The server is automatically closed
// when the test finishes.
func startGeminiServer(t *testing.T, handler func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")
		handler(conn, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// readJSON reads one WebSocket text frame and decodes it into v.
func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("readJSON: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("readJSON unmarshal: %v", err)
	}
}

// writeJSON marshals v and sends it as a text frame.
func writeJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, _ := json.Marshal(v)
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Logf("writeJSON: %v (may be expected on close)", err)
	}
}

// sendSetupComplete sends the server-side setupComplete ack.
func sendSetupComplete(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	writeJSON(t, conn, map[string]any{"setupComplete": map[string]any{}})
}

// newProvider creates a Provider pointing at the given test server.
func newProvider(srv *httptest.Server) *gemini.Provider {
	return gemini.New("test-api-key", gemini.WithBaseURL(wsURL(srv)))
}

// nextEvent waits for one event from the session, failing the test on timeout.
func nextEvent(t *testing.T, handle live.SessionHandle) live.Event {
	t.Helper()
	select {
	case ev, ok := <-handle.Events():
		if !ok {
			t.Fatal("events channel closed unexpectedly")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return live.Event{}
}

// ── Option constructor tests ───────────────────────────────────────────────────

func TestNew_DefaultValues(t *testing.T) {
	t.Parallel()
	p := gemini.New("my-key")
	if p == nil {
		t.Fatal("New returned nil")
	}
}

func TestWithModel_SetsModel(t *testing.T) {
	t.Parallel()

	modelCh := make(chan string, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var msg struct {
			Setup struct {
				Model string `json:"model"`
			} `json:"setup"`
		}
		readJSON(t, conn, &msg)
		modelCh <- msg.Setup.Model
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := gemini.New("key", gemini.WithModel("custom-model"), gemini.WithBaseURL(wsURL(srv)))
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	select {
	case model := <-modelCh:
		if want := "models/custom-model"; model != want {
			t.Errorf("model = %q, want %q", model, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for setup message")
	}
}

func TestCapabilities_NonEmpty(t *testing.T) {
	t.Parallel()

	p := gemini.New("key")
	caps := p.Capabilities()
	if len(caps.Voices) == 0 {
		t.Error("Capabilities.Voices is empty")
	}
	if caps.MaxSessionDurationMs <= 0 {
		t.Error("Capabilities.MaxSessionDurationMs not set")
	}
}

// ── Connect / setup tests ──────────────────────────────────────────────────────

func TestConnect_SendsSetup(t *testing.T) {
	t.Parallel()

	setupCh := make(chan map[string]any, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var msg map[string]any
		readJSON(t, conn, &msg)
		setupCh <- msg
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{
		Voice:        "Zephyr",
		Instructions: "You are a mission companion.",
		Tools: []llm.ToolDefinition{
			{Name: "navigateToScreen", Description: "Navigate the UI", Parameters: map[string]any{
				"type": "object",
			}},
		},
		TranscribeInput:  true,
		TranscribeOutput: true,
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	var raw map[string]any
	select {
	case raw = <-setupCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for setup message")
	}

	setup, ok := raw["setup"].(map[string]any)
	if !ok {
		t.Fatalf("setup missing in %v", raw)
	}

	genCfg, _ := setup["generationConfig"].(map[string]any)
	modalities, _ := genCfg["responseModalities"].([]any)
	if len(modalities) != 1 || modalities[0] != "AUDIO" {
		t.Errorf("responseModalities = %v, want [AUDIO]", modalities)
	}

	speech, _ := genCfg["speechConfig"].(map[string]any)
	voiceCfg, _ := speech["voiceConfig"].(map[string]any)
	prebuilt, _ := voiceCfg["prebuiltVoiceConfig"].(map[string]any)
	if prebuilt["voiceName"] != "Zephyr" {
		t.Errorf("voiceName = %v, want Zephyr", prebuilt["voiceName"])
	}

	sysInstr, _ := setup["systemInstruction"].(map[string]any)
	parts, _ := sysInstr["parts"].([]any)
	if len(parts) != 1 {
		t.Fatalf("systemInstruction.parts = %v, want one part", parts)
	}

	tools, _ := setup["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools = %v, want one entry", tools)
	}

	if _, ok := setup["inputAudioTranscription"]; !ok {
		t.Error("inputAudioTranscription missing from setup")
	}
	if _, ok := setup["outputAudioTranscription"]; !ok {
		t.Error("outputAudioTranscription missing from setup")
	}
}

func TestConnect_IncludesAPIKeyInURL(t *testing.T) {
	t.Parallel()

	keyCh := make(chan string, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, r *http.Request) {
		keyCh <- r.URL.Query().Get("key")
		var msg map[string]any
		readJSON(t, conn, &msg)
		sendSetupComplete(t, conn)
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	select {
	case key := <-keyCh:
		if key != "test-api-key" {
			t.Errorf("key = %q, want test-api-key", key)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for connection")
	}
}

func TestConnect_CancelledContext_ReturnsError(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newProvider(srv)
	if _, err := p.Connect(ctx, live.SessionConfig{}); err == nil {
		t.Fatal("Connect with cancelled context succeeded, want error")
	}
}

// ── SendAudio tests ────────────────────────────────────────────────────────────

func TestSendAudio_EncodesAndSends(t *testing.T) {
	t.Parallel()

	inputCh := make(chan map[string]any, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)

		var msg map[string]any
		readJSON(t, conn, &msg)
		inputCh <- msg
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	if err := handle.SendAudio(pcm); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	var raw map[string]any
	select {
	case raw = <-inputCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for realtimeInput")
	}

	ri, _ := raw["realtimeInput"].(map[string]any)
	chunks, _ := ri["mediaChunks"].([]any)
	if len(chunks) != 1 {
		t.Fatalf("mediaChunks = %v, want one chunk", chunks)
	}
	chunk, _ := chunks[0].(map[string]any)
	if chunk["mimeType"] != "audio/pcm;rate=16000" {
		t.Errorf("mimeType = %v, want audio/pcm;rate=16000", chunk["mimeType"])
	}
	decoded, err := base64.StdEncoding.DecodeString(chunk["data"].(string))
	if err != nil {
		t.Fatalf("decode chunk data: %v", err)
	}
	if string(decoded) != string(pcm) {
		t.Errorf("decoded chunk = %v, want %v", decoded, pcm)
	}
}

func TestSendAudio_AfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	handle.Close()

	if err := handle.SendAudio([]byte{0x01}); err == nil {
		t.Error("SendAudio after Close succeeded, want error")
	}
}

// ── Event stream tests ─────────────────────────────────────────────────────────

func TestEvents_SetupComplete(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	ev := nextEvent(t, handle)
	if ev.Type != live.EventSetupComplete {
		t.Errorf("event type = %v, want EventSetupComplete", ev.Type)
	}
}

func TestEvents_DeliversDecodedPCM(t *testing.T) {
	t.Parallel()

	pcm := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{
							"mimeType": "audio/pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						}},
					},
				},
			},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if ev := nextEvent(t, handle); ev.Type != live.EventSetupComplete {
		t.Fatalf("first event = %v, want EventSetupComplete", ev.Type)
	}
	ev := nextEvent(t, handle)
	if ev.Type != live.EventAudio {
		t.Fatalf("event type = %v, want EventAudio", ev.Type)
	}
	if string(ev.Audio) != string(pcm) {
		t.Errorf("audio = %v, want %v", ev.Audio, pcm)
	}
}

func TestEvents_PreservesWireOrder(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x01, 0x02}

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"modelTurn": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]any{
							"data": base64.StdEncoding.EncodeToString(pcm),
						}},
					},
				},
				"outputTranscription": map[string]any{"text": "Hello, "},
			},
		})
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"outputTranscription": map[string]any{"text": "Commander."},
				"turnComplete":        true,
			},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{TranscribeOutput: true})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	want := []live.EventType{
		live.EventSetupComplete,
		live.EventAudio,
		live.EventOutputTranscription,
		live.EventOutputTranscription,
		live.EventTurnComplete,
	}
	for i, wt := range want {
		ev := nextEvent(t, handle)
		if ev.Type != wt {
			t.Fatalf("event %d type = %v, want %v", i, ev.Type, wt)
		}
	}
}

func TestEvents_InterruptedBeforeTurnComplete(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"interrupted":  true,
				"turnComplete": true,
			},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if ev := nextEvent(t, handle); ev.Type != live.EventSetupComplete {
		t.Fatalf("first event = %v, want EventSetupComplete", ev.Type)
	}
	if ev := nextEvent(t, handle); ev.Type != live.EventInterrupted {
		t.Fatalf("second event = %v, want EventInterrupted", ev.Type)
	}
	if ev := nextEvent(t, handle); ev.Type != live.EventTurnComplete {
		t.Fatalf("third event = %v, want EventTurnComplete", ev.Type)
	}
}

func TestEvents_InputTranscription(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		writeJSON(t, conn, map[string]any{
			"serverContent": map[string]any{
				"inputTranscription": map[string]any{"text": "How do I sleep better"},
			},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{TranscribeInput: true})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if ev := nextEvent(t, handle); ev.Type != live.EventSetupComplete {
		t.Fatalf("first event = %v, want EventSetupComplete", ev.Type)
	}
	ev := nextEvent(t, handle)
	if ev.Type != live.EventInputTranscription {
		t.Fatalf("event type = %v, want EventInputTranscription", ev.Type)
	}
	if ev.Text != "How do I sleep better" {
		t.Errorf("text = %q", ev.Text)
	}
}

// ── Tool call tests ────────────────────────────────────────────────────────────

func TestEvents_ToolCallBatch(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		writeJSON(t, conn, map[string]any{
			"toolCall": map[string]any{
				"functionCalls": []map[string]any{
					{"id": "call-1", "name": "logSymptom", "args": map[string]any{
						"symptom":  "Headache",
						"severity": "Mild",
					}},
					{"id": "call-2", "name": "navigateToScreen", "args": map[string]any{
						"screen": "guardian",
					}},
				},
			},
		})
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if ev := nextEvent(t, handle); ev.Type != live.EventSetupComplete {
		t.Fatalf("first event = %v, want EventSetupComplete", ev.Type)
	}
	ev := nextEvent(t, handle)
	if ev.Type != live.EventToolCall {
		t.Fatalf("event type = %v, want EventToolCall", ev.Type)
	}
	if len(ev.ToolCalls) != 2 {
		t.Fatalf("tool calls = %d, want 2", len(ev.ToolCalls))
	}
	if ev.ToolCalls[0].ID != "call-1" || ev.ToolCalls[0].Name != "logSymptom" {
		t.Errorf("first call = %+v", ev.ToolCalls[0])
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(ev.ToolCalls[0].Args), &args); err != nil {
		t.Fatalf("args not valid JSON: %v", err)
	}
	if args["severity"] != "Mild" {
		t.Errorf("args = %v", args)
	}
}

func TestSendToolResponses_EchoesIDs(t *testing.T) {
	t.Parallel()

	respCh := make(chan map[string]any, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)

		var msg map[string]any
		readJSON(t, conn, &msg)
		respCh <- msg
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	err = handle.SendToolResponses([]live.ToolResponse{
		{ID: "call-1", Name: "logSymptom", Result: "Symptom logged successfully."},
	})
	if err != nil {
		t.Fatalf("SendToolResponses: %v", err)
	}

	var raw map[string]any
	select {
	case raw = <-respCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for toolResponse")
	}

	tr, _ := raw["toolResponse"].(map[string]any)
	frs, _ := tr["functionResponses"].([]any)
	if len(frs) != 1 {
		t.Fatalf("functionResponses = %v, want one", frs)
	}
	fr, _ := frs[0].(map[string]any)
	if fr["id"] != "call-1" || fr["name"] != "logSymptom" {
		t.Errorf("functionResponse = %v", fr)
	}
	resp, _ := fr["response"].(map[string]any)
	if resp["result"] != "Symptom logged successfully." {
		t.Errorf("response = %v", resp)
	}
}

// ── SendText tests ─────────────────────────────────────────────────────────────

func TestSendText_SendsClientContent(t *testing.T) {
	t.Parallel()

	contentCh := make(chan map[string]any, 1)

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)

		var msg map[string]any
		readJSON(t, conn, &msg)
		contentCh <- msg
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if err := handle.SendText("Tell me about the mission timeline."); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	var raw map[string]any
	select {
	case raw = <-contentCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for clientContent")
	}

	cc, _ := raw["clientContent"].(map[string]any)
	if cc["turnComplete"] != true {
		t.Errorf("turnComplete = %v, want true", cc["turnComplete"])
	}
	turns, _ := cc["turns"].([]any)
	if len(turns) != 1 {
		t.Fatalf("turns = %v, want one", turns)
	}
	turn, _ := turns[0].(map[string]any)
	if turn["role"] != "user" {
		t.Errorf("role = %v, want user", turn["role"])
	}
}

// ── Lifecycle tests ────────────────────────────────────────────────────────────

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := handle.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestClose_ClosesEventsChannel(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	handle.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-handle.Events():
			if !ok {
				if handle.Err() != nil {
					t.Errorf("Err after clean close = %v, want nil", handle.Err())
				}
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed")
		}
	}
}

func TestConcurrentSendAudio_DoesNotRace(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = handle.SendAudio([]byte{0x01, 0x02})
			}
		}()
	}
	wg.Wait()
}

func TestErr_NilBeforeClose(t *testing.T) {
	t.Parallel()

	srv := startGeminiServer(t, func(conn *websocket.Conn, _ *http.Request) {
		var setup map[string]any
		readJSON(t, conn, &setup)
		sendSetupComplete(t, conn)
		<-conn.CloseRead(context.Background()).Done()
	})

	p := newProvider(srv)
	handle, err := p.Connect(context.Background(), live.SessionConfig{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer handle.Close()

	if handle.Err() != nil {
		t.Errorf("Err = %v, want nil", handle.Err())
	}
}
