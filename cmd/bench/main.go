package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	v1 "mather/api/sim/v1"

	jsoniter "github.com/json-iterator/go"
)

type job struct {
	gameID string
	mode   string
}

type options struct {
	baseURL     string
	count       int64
	seed        uint64
	workers     int
	saveBooks   bool
	modes       map[string]bool
	concurrency int
}

// 对服务端全部游戏/模式批量提交模拟任务
func main() {
	baseURL := flag.String("base-url", "http://127.0.0.1:8000", "")
	count := flag.Int64("count", 1_000_000, "spins per task")
	seed := flag.Uint64("seed", 0, "")
	workers := flag.Int("workers", 0, "0 = server default")
	saveBooks := flag.Bool("save-books", false, "")
	modes := flag.String("modes", "", "comma separated, empty = all")
	concurrency := flag.Int("concurrency", 4, "")
	flag.Parse()

	opts := options{
		baseURL:     strings.TrimRight(*baseURL, "/"),
		count:       *count,
		seed:        *seed,
		workers:     *workers,
		saveBooks:   *saveBooks,
		modes:       map[string]bool{},
		concurrency: max(*concurrency, 1),
	}
	for _, m := range strings.Split(*modes, ",") {
		if m = strings.TrimSpace(m); m != "" {
			opts.modes[m] = true
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	games, err := fetchGames(client, opts.baseURL)
	if err != nil {
		fmt.Printf("fetch list games failed: %v\n", err)
		return
	}
	var jobs []job
	for _, g := range games {
		for _, m := range g.Modes {
			if len(opts.modes) > 0 && !opts.modes[m.Name] {
				continue
			}
			jobs = append(jobs, job{gameID: g.GameId, mode: m.Name})
		}
	}
	if len(jobs) == 0 {
		fmt.Println("no game modes found")
		return
	}

	runConcurrent(client, opts.baseURL+"/v1/tasks", jobs, opts)
}

func buildPayload(j job, opts options) *v1.CreateTaskRequest {
	return &v1.CreateTaskRequest{
		Description: "bench",
		Config: &v1.TaskConfig{
			GameId:    j.gameID,
			Mode:      j.mode,
			Count:     opts.count,
			Seed:      opts.seed,
			Workers:   int32(opts.workers),
			SaveBooks: opts.saveBooks,
		},
	}
}

func runConcurrent(client *http.Client, endpoint string, jobs []job, opts options) {
	ch := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < opts.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				var reply v1.CreateTaskResponse
				if err := postJSON(client, endpoint, buildPayload(j, opts), &reply); err != nil {
					fmt.Printf("%s/%s request failed: %v\n", j.gameID, j.mode, err)
					continue
				}
				if reply.Code != 0 || reply.Task == nil {
					fmt.Printf("%s/%s rejected: %s\n", j.gameID, j.mode, reply.Message)
					continue
				}
				fmt.Printf("%s/%s task %s created\n", j.gameID, j.mode, reply.Task.TaskId)
			}
		}()
	}
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()
}

func fetchGames(client *http.Client, baseURL string) ([]*v1.GameInfo, error) {
	resp, err := client.Get(baseURL + "/v1/games")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var data v1.ListGamesResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data.Games, nil
}

func postJSON(client *http.Client, url string, payload, reply any) error {
	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return jsoniter.NewDecoder(resp.Body).Decode(reply)
}
