package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/tabwatch/tabwatch/internal/model"
)

func runTiming(apiURL string, out io.Writer) error {
	resp, err := http.Get(apiURL + "/api/timing")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var td model.TimingData
	if err := json.NewDecoder(resp.Body).Decode(&td); err != nil {
		return err
	}

	ids := make([]model.TabID, 0, len(td.TimingData))
	for id := range td.TimingData {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		tt := td.TimingData[id]
		marker := " "
		total := tt.TotalActiveTime
		if tt.CurrentActiveTime != nil {
			marker = "*"
			total += *tt.CurrentActiveTime
		}
		fmt.Fprintf(out, "%s tab %-8d active %-12s open since %s\n",
			marker, id, formatMillis(total), time.UnixMilli(tt.OpenedAt).Format(time.RFC3339))
	}
	return nil
}

func runClosed(apiURL string, out io.Writer) error {
	resp, err := http.Get(apiURL + "/api/closed-tabs")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}

	var body struct {
		ClosedTabs []model.ClosedTabRecord `json:"closedTabs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	for _, rec := range body.ClosedTabs {
		fmt.Fprintf(out, "%s  %-40s active %-12s open %-12s %s\n",
			time.UnixMilli(rec.ClosedAt).Format("15:04:05"),
			truncate(rec.Title, 40),
			formatMillis(rec.TotalActiveTime),
			formatMillis(rec.TotalTimeOpen),
			rec.URL)
	}
	return nil
}

func runReopen(apiURL, url, title string, out io.Writer) error {
	payload, _ := json.Marshal(map[string]string{"url": url, "title": title})
	resp, err := http.Post(apiURL+"/api/closed-tabs/reopen", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Success  bool         `json:"success"`
		NewTabID *model.TabID `json:"newTabId"`
		Error    string       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if !body.Success {
		return fmt.Errorf("reopen rejected: %s", body.Error)
	}
	fmt.Fprintf(out, "reopened as tab %d\n", *body.NewTabID)
	return nil
}

func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return d.Truncate(time.Second).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
