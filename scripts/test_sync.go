package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/lxzan/gws"
)

const (
	baseURL = "http://127.0.0.1:9000"
	wsURL   = "ws://127.0.0.1:9000/api/sync"
)

type Handler struct {
	gws.BuiltinEventHandler
	recv chan []byte
}

func (h *Handler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	data := message.Data.Bytes()
	// Copy data because message is closed after return
	buf := make([]byte, len(data))
	copy(buf, data)
	h.recv <- buf
}

func main() {
	// 1. Exchange the access secret for a session token
	secret := os.Getenv("DRAFT_SECRET")
	if len(os.Args) > 1 {
		secret = os.Args[1]
	}
	if secret == "" {
		log.Fatal("usage: test_sync <access-secret>  (or set DRAFT_SECRET)")
	}
	token := createSession(secret)
	fmt.Println("Got token:", token)

	// 2. Connect WS
	handler := &Handler{recv: make(chan []byte, 10)}
	u, _ := url.Parse(wsURL)
	socket, _, err := gws.NewClient(handler, &gws.ClientOption{
		Addr: u.String(),
	})
	if err != nil {
		log.Fatal("dial:", err)
	}
	go socket.ReadLoop()
	defer socket.WriteClose(1000, []byte("bye"))

	// 3. Auth
	sendJSON(socket, "Authorization", []byte(token))
	readResponse(handler) // Expect Authorization success

	// 4. Edit burst: each edit re-arms the debounce window, only the last
	// content should be persisted
	for i := 1; i <= 3; i++ {
		edit := map[string]interface{}{
			"slug":    "smoke-note",
			"title":   "Smoke Note",
			"content": fmt.Sprintf("draft revision %d", i),
		}
		editBytes, _ := json.Marshal(edit)
		sendJSON(socket, "DraftEdit", editBytes)
		readResponse(handler) // Ack with status unsaved
		time.Sleep(300 * time.Millisecond)
	}

	// 5. Wait past the debounce window for the DraftStatusSync push chain
	// (saving, then saved after the feedback delay)
	fmt.Println("Waiting for autosave...")
	waitForPush(handler, "saved", 6*time.Second)

	// 6. Poll status
	statusBytes, _ := json.Marshal(map[string]interface{}{"slug": "smoke-note"})
	sendJSON(socket, "DraftStatus", statusBytes)
	readResponse(handler)

	// 7. Manual save on a second slug, no debounce wait
	save := map[string]interface{}{
		"slug":    "smoke-manual",
		"title":   "Manual",
		"content": "flushed immediately",
	}
	saveBytes, _ := json.Marshal(save)
	sendJSON(socket, "DraftSave", saveBytes)
	readResponse(handler)

	// 8. Read both drafts back
	for _, slug := range []string{"smoke-note", "smoke-manual"} {
		getBytes, _ := json.Marshal(map[string]interface{}{"slug": slug})
		sendJSON(socket, "DraftGet", getBytes)
		readResponse(handler)
	}

	// 9. Clean up
	for _, slug := range []string{"smoke-note", "smoke-manual"} {
		clearBytes, _ := json.Marshal(map[string]interface{}{"slug": slug})
		sendJSON(socket, "DraftClear", clearBytes)
		readResponse(handler)
	}
	fmt.Println("Smoke run completed")
}

func createSession(secret string) string {
	client := &http.Client{Timeout: 5 * time.Second}

	workspace := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	body := []byte(fmt.Sprintf(`{"secret":"%s","client":"smoke-test","workspace":"%s","version":"0.0.1"}`, secret, workspace))
	resp, err := client.Post(baseURL+"/api/session", "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Fatal("session req:", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	fmt.Println("Session response:", string(respBody))

	var res struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	json.Unmarshal(respBody, &res)
	if res.Data.Token == "" {
		log.Fatal("no token in session response, check the access secret")
	}
	return res.Data.Token
}

func sendJSON(socket *gws.Conn, typeStr string, data []byte) {
	payload := fmt.Sprintf("%s|%s", typeStr, string(data))
	socket.WriteMessage(gws.OpcodeText, []byte(payload))
}

func readResponse(h *Handler) string {
	select {
	case msg := <-h.recv:
		fmt.Println("Recv:", string(msg))
		return string(msg)
	case <-time.After(5 * time.Second):
		log.Fatal("timeout waiting for response")
		return ""
	}
}

// waitForPush drains pushes until one carries the wanted status or the
// deadline passes
func waitForPush(h *Handler, status string, timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-h.recv:
			fmt.Println("Push:", string(msg))
			parts := bytes.SplitN(msg, []byte("|"), 2)
			if len(parts) < 2 {
				continue
			}
			var push struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			json.Unmarshal(parts[1], &push)
			if push.Data.Status == status {
				return
			}
		case <-deadline:
			log.Fatal("timeout waiting for status push:", status)
		}
	}
}
