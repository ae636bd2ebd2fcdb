// Command roster_replay posts a JSON roster file to a running timetable API
// in batches and reports per-outcome totals. Useful when cutting over from a
// legacy scheduling sheet: re-running the same file is idempotent.
package main

import (
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

type importRow struct {
	Mode          string `json:"mode"`
	InstructorID  string `json:"instructor_id"`
	SubjectCode   string `json:"subject_code"`
	ClassTypeCode string `json:"class_type_code"`
	Weekday       int    `json:"weekday,omitempty"`
	Date          string `json:"date,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ActiveFrom    string `json:"active_from,omitempty"`
	ActiveTo      string `json:"active_to,omitempty"`
	StudentID     string `json:"student_id"`
}

type rowResult struct {
	Row     int    `json:"row"`
	Outcome string `json:"outcome"`
	ClassID string `json:"class_id"`
	Message string `json:"message"`
}

type summary struct {
	Total    int         `json:"total"`
	Created  int         `json:"created"`
	Existing int         `json:"existing"`
	Enrolled int         `json:"enrolled"`
	Conflict int         `json:"conflict"`
	Errors   int         `json:"errors"`
	Rows     []rowResult `json:"rows"`
}

type envelope struct {
	Data  *summary        `json:"data"`
	Error json.RawMessage `json:"error"`
}

func main() {
	var (
		baseURL   string
		rowsPath  string
		token     string
		batchSize int
		timeout   time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "Timetable API base URL")
	flag.StringVar(&rowsPath, "rows", "roster.json", "Path to JSON array of import rows")
	flag.StringVar(&token, "token", os.Getenv("TIMETABLE_TOKEN"), "Bearer token with staff role")
	flag.IntVar(&batchSize, "batch", 200, "Rows per request")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	rows, err := loadRows(rowsPath)
	if err != nil {
		log.Fatalf("failed to load rows: %v", err)
	}
	if token == "" {
		log.Fatal("a staff token is required (-token or TIMETABLE_TOKEN)")
	}

	client := &http.Client{Timeout: timeout}
	total := summary{}
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch, err := postBatch(client, baseURL, token, rows[start:end])
		if err != nil {
			log.Fatalf("batch %d-%d failed: %v", start+1, end, err)
		}
		total.Total += batch.Total
		total.Created += batch.Created
		total.Existing += batch.Existing
		total.Enrolled += batch.Enrolled
		total.Conflict += batch.Conflict
		total.Errors += batch.Errors
		for _, row := range batch.Rows {
			if row.Outcome == "conflict" || row.Outcome == "error" {
				fmt.Printf("row %d (%s): %s\n", start+row.Row, row.Outcome, row.Message)
			}
		}
	}

	fmt.Printf("done: %d rows, %d created, %d existing, %d enrolled, %d conflict, %d errors\n",
		total.Total, total.Created, total.Existing, total.Enrolled, total.Conflict, total.Errors)
	if total.Errors > 0 {
		os.Exit(1)
	}
}

func loadRows(path string) ([]importRow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []importRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s contains no rows", path)
	}
	return rows, nil
}

func postBatch(client *http.Client, baseURL, token string, rows []importRow) (*summary, error) {
	payload, err := json.Marshal(map[string]interface{}{"rows": rows})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/import/classes", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("response carried no summary: %s", body)
	}
	return env.Data, nil
}
