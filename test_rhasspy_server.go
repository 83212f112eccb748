package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

type SpeechToTextResponse struct {
	Text              string  `json:"text"`
	Likelihood        float64 `json:"likelihood"`
	TranscribeSeconds float64 `json:"transcribe_seconds"`
}

type IntentResponse struct {
	Intent struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Text   string   `json:"text"`
	Slots  []string `json:"slots"`
	SiteID string   `json:"siteId"`
}

func speechToTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	audioData, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading audio", http.StatusBadRequest)
		return
	}

	siteID := r.URL.Query().Get("siteId")

	log.Printf("speech-to-text request: siteId=%s content-type=%s audio=%d bytes",
		siteID, r.Header.Get("Content-Type"), len(audioData))

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := SpeechToTextResponse{
		Text:              "turn on the living room lamp",
		Likelihood:        0.95,
		TranscribeSeconds: 0.2,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("speech-to-text response sent: '%s'", response.Text)
}

func textToIntentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading text", http.StatusBadRequest)
		return
	}

	siteID := r.URL.Query().Get("siteId")

	log.Printf("text-to-intent request: siteId=%s text='%s'", siteID, string(text))

	response := IntentResponse{
		Text:   string(text),
		Slots:  []string{},
		SiteID: siteID,
	}
	response.Intent.Name = "ChangeLightState"
	response.Intent.Confidence = 1.0

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)

	log.Printf("intent response sent: %s", response.Intent.Name)
}

func main() {
	http.HandleFunc("/api/speech-to-text", speechToTextHandler)
	http.HandleFunc("/api/text-to-intent", textToIntentHandler)

	port := ":12101"
	log.Printf("Test Rhasspy server starting on port %s", port)
	log.Printf("Endpoints: http://localhost%s/api/speech-to-text, http://localhost%s/api/text-to-intent", port, port)
	log.Println("Update your config to point asr_url and nlu_url at these endpoints")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
