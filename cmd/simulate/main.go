package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Fires N concurrent booking requests at one slot and reports the outcome
// split. With capacity C and N > C the expected result is exactly C created,
// the rest rejected as full or busy — never an overshoot.
func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080/api/v1", "API base URL")
		email      = flag.String("email", "frontdesk@clinic.local", "receptionist email")
		password   = flag.String("password", "password123", "receptionist password")
		scheduleID = flag.String("schedule", "", "target schedule ID")
		slotID     = flag.String("slot", "", "target slot ID")
		patientID  = flag.String("patient", "", "patient ID to book for")
		workers    = flag.Int("n", 20, "concurrent booking requests")
	)
	flag.Parse()

	logrus.SetFormatter(&logrus.JSONFormatter{})

	if *scheduleID == "" || *slotID == "" || *patientID == "" {
		logrus.Fatal("schedule, slot and patient flags are required")
	}

	client := &http.Client{Timeout: 10 * time.Second}

	token, err := login(client, *baseURL, *email, *password)
	if err != nil {
		logrus.Fatalf("Login failed: %v", err)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"patient_id":  *patientID,
		"schedule_id": *scheduleID,
		"slot_id":     *slotID,
		"reason":      "load simulation",
	})

	var (
		mu      sync.Mutex
		counts  = map[int]int{}
		start   = time.Now()
		wg      sync.WaitGroup
		barrier = make(chan struct{})
	)

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-barrier

			req, _ := http.NewRequest(http.MethodPost, *baseURL+"/appointments", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := client.Do(req)
			if err != nil {
				logrus.Warnf("Request failed: %v", err)
				return
			}
			resp.Body.Close()

			mu.Lock()
			counts[resp.StatusCode]++
			mu.Unlock()
		}()
	}

	close(barrier)
	wg.Wait()

	logrus.Infof("Fired %d concurrent bookings in %v", *workers, time.Since(start))
	for code, n := range counts {
		logrus.Infof("  HTTP %d: %d", code, n)
	}
	fmt.Printf("created=%d rejected=%d\n", counts[http.StatusCreated], *workers-counts[http.StatusCreated])
}

func login(client *http.Client, baseURL, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned HTTP %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return parsed.Data.AccessToken, nil
}
