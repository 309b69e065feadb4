package main

import (
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const (
	defaultBaseURL = "http://127.0.0.1:8090"
	numWorkers     = 50
	testDuration   = 10 * time.Second
	seedCaptures   = 3
)

var (
	baseURL = envOr("GUILDSNAP_LOADTEST_URL", defaultBaseURL)
	guildID = os.Getenv("GUILDSNAP_LOADTEST_GUILD")
	apiKey  = os.Getenv("GUILDSNAP_API_KEY")
)

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// main exercises the read paths of a running daemon. Captures hit the real
// remote API, so only a handful are taken to seed the snapshot list.
func main() {
	if guildID == "" {
		fmt.Println("GUILDSNAP_LOADTEST_GUILD must name a guild the daemon can read")
		os.Exit(2)
	}

	fmt.Println("=== guildsnap Load Test ===")
	fmt.Printf("Target: %s | Guild: %s | Workers: %d | Duration: %s\n\n", baseURL, guildID, numWorkers, testDuration)

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Printf("\n--- Phase 1: Seeding %d snapshots (POST /guilds/%s/snapshots) ---\n", seedCaptures, guildID)
	var ids []string
	for i := 0; i < seedCaptures; i++ {
		id, r := doCapture(i)
		fmt.Printf("  capture %d: status %d in %s\n", i+1, r.status, fmtDur(r.latency))
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		fmt.Println("No snapshot captured, read phases need at least one")
		return
	}

	fmt.Println("\n--- Phase 2: List-heavy load (cached listing) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.8 {
			return doGetList()
		}
		return doGetSnapshot(ids[rng.Intn(len(ids))])
	})

	fmt.Println("\n--- Phase 3: Mixed reads (snapshots, jobs, health) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.40:
			return doGetSnapshot(ids[rng.Intn(len(ids))])
		case r < 0.70:
			return doGetList()
		case r < 0.90:
			return doGetJobs()
		default:
			return doGet("GET /health", "/health")
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					results <- workFn(rng)
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-36s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 100))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		fmt.Printf("  %-36s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(avgDuration(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}

	if totalOps == 0 {
		return
	}
	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 100))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func newRequest(method, path string, body io.Reader) *http.Request {
	req, _ := http.NewRequest(method, baseURL+path, body)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func doCapture(n int) (string, result) {
	body := fmt.Sprintf(`{"displayName":"loadtest seed %d"}`, n+1)
	start := time.Now()
	resp, err := httpClient.Do(newRequest(http.MethodPost, "/guilds/"+guildID+"/snapshots", strings.NewReader(body)))
	lat := time.Since(start)
	if err != nil {
		return "", result{"POST /guilds/{guild}/snapshots", 0, lat, true}
	}
	defer resp.Body.Close()

	var summary struct {
		ID string `json:"id"`
	}
	if resp.StatusCode == http.StatusCreated {
		_ = json.NewDecoder(resp.Body).Decode(&summary)
	}
	return summary.ID, result{"POST /guilds/{guild}/snapshots", resp.StatusCode, lat, resp.StatusCode != http.StatusCreated}
}

func doGet(endpoint, path string) result {
	start := time.Now()
	resp, err := httpClient.Do(newRequest(http.MethodGet, path, nil))
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doGetList() result {
	return doGet("GET /guilds/{guild}/snapshots", "/guilds/"+guildID+"/snapshots")
}

func doGetSnapshot(id string) result {
	return doGet("GET /guilds/{guild}/snapshots/{id}", "/guilds/"+guildID+"/snapshots/"+id)
}

func doGetJobs() result {
	return doGet("GET /restores", "/restores")
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}
