// sayclient injects typed utterances into a running orchestrator, for local
// testing without a speech backend. Each argument is sent as one utterance;
// with no arguments it reads lines from stdin.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "orchestrator base URL")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	if flag.NArg() > 0 {
		for _, text := range flag.Args() {
			say(client, *addr, text)
			time.Sleep(200 * time.Millisecond)
		}
		return
	}

	fmt.Println("Type utterances, one per line (Ctrl-D to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if text := scanner.Text(); text != "" {
			say(client, *addr, text)
		}
	}
}

func say(client *http.Client, addr, text string) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		log.Fatalf("failed to encode utterance: %v", err)
	}

	resp, err := client.Post(addr+"/v1/utterance", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("failed to send utterance: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Fatalf("unexpected status %d: %s", resp.StatusCode, excerpt)
	}
	log.Printf("sent: %q", text)
}
