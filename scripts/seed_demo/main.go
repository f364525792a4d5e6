// Command seed_demo drives a running API instance end to end: it registers a
// demo student, saves onboarding settings, creates courses and tasks, and
// triggers a scheduling run. Useful for local smoke testing and demos.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	var (
		base    string
		email   string
		pass    string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&email, "email", fmt.Sprintf("demo+%d@student.edu", time.Now().Unix()), "Demo account email")
	flag.StringVar(&pass, "password", "demo-password-1", "Demo account password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	c := &client{base: base, http: &http.Client{Timeout: timeout}}

	var auth struct {
		Token string `json:"token"`
	}
	if err := c.post("/auth/register", map[string]any{
		"email":    email,
		"password": pass,
		"name":     "Demo Student",
		"timeZone": "America/New_York",
	}, &auth); err != nil {
		log.Fatalf("register failed: %v", err)
	}
	c.token = auth.Token
	log.Printf("registered %s", email)

	if err := c.put("/onboarding", map[string]any{
		"wakeTime":                  "07:30",
		"sleepTime":                 "23:30",
		"buildingWalkBufferMinutes": 10,
		"commuteBufferMinutes":      20,
		"maxStudyMinutesPerDay":     300,
		"maxStudyBlockMinutes":      90,
		"timeZone":                  "America/New_York",
		"meals": []map[string]any{
			{"mealType": "breakfast", "earliestTime": "07:30", "latestTime": "09:00", "typicalDurationMin": 30, "importance": 2},
			{"mealType": "lunch", "earliestTime": "11:30", "latestTime": "13:30", "typicalDurationMin": 45, "importance": 3},
			{"mealType": "dinner", "earliestTime": "18:00", "latestTime": "20:00", "typicalDurationMin": 45, "importance": 3},
		},
	}, nil); err != nil {
		log.Fatalf("onboarding failed: %v", err)
	}
	log.Printf("onboarding saved")

	var course struct {
		ID string `json:"id"`
	}
	if err := c.post("/courses", map[string]any{
		"name":       "Algorithms",
		"code":       "CS 4102",
		"difficulty": "hard",
		"meetings": []map[string]any{
			{"dayOfWeek": 1, "startTime": "09:30", "endTime": "10:45", "building": "Rice Hall"},
			{"dayOfWeek": 3, "startTime": "09:30", "endTime": "10:45", "building": "Rice Hall"},
		},
	}, &course); err != nil {
		log.Fatalf("create course failed: %v", err)
	}
	log.Printf("created course %s", course.ID)

	due := time.Now().AddDate(0, 0, 4).Format(time.RFC3339)
	tasks := []map[string]any{
		{"title": "Problem Set 3", "type": "homework", "dueAt": due, "estimatedMinutes": 150, "courseId": course.ID},
		{"title": "Midterm review", "type": "exam", "dueAt": time.Now().AddDate(0, 0, 6).Format(time.RFC3339), "courseId": course.ID},
		{"title": "Laundry", "type": "life", "dueAt": due},
	}
	for _, task := range tasks {
		if err := c.post("/tasks", task, nil); err != nil {
			log.Fatalf("create task %q failed: %v", task["title"], err)
		}
	}
	log.Printf("created %d tasks", len(tasks))

	var schedule struct {
		Days   int `json:"days"`
		Blocks []struct {
			Type  string `json:"type"`
			Label string `json:"label"`
		} `json:"blocks"`
		AtRisk []struct {
			Title string `json:"title"`
		} `json:"atRisk"`
	}
	if err := c.post("/schedule/run", map[string]any{"days": 7}, &schedule); err != nil {
		log.Fatalf("schedule run failed: %v", err)
	}
	log.Printf("planned %d blocks over %d days, %d tasks at risk",
		len(schedule.Blocks), schedule.Days, len(schedule.AtRisk))
}

func (c *client) post(path string, payload, out any) error {
	return c.do(http.MethodPost, path, payload, out)
}

func (c *client) put(path string, payload, out any) error {
	return c.do(http.MethodPut, path, payload, out)
}

func (c *client) do(method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("status %d: unparseable body %q", resp.StatusCode, raw)
	}
	if env.Error != nil {
		return fmt.Errorf("status %d: %s (%s)", resp.StatusCode, env.Error.Message, env.Error.Code)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
