// Command goconsole-loadtest measures the session store under concurrent
// use: guard decisions racing logins and logouts, full logins against the
// mock management API, and notification churn.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/internal/mockapi"
	"github.com/MrEthical07/goConsole/router"
	"github.com/MrEthical07/goConsole/storage"
	"github.com/MrEthical07/goConsole/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
)

var paths = []string{"/", "/login", "/dashboard", "/admin/servers", "/admin/servers/", "/missing"}

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "guard decisions and notifications per phase")
		logins      = flag.Int("logins", 500, "logins in the login phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gc-load", "session key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency, ops, and logins must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api, err := startAPI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start mock api: %v\n", err)
		os.Exit(1)
	}
	defer api.Close()

	store, err := goConsole.New().
		WithBaseURL(api.URL).
		WithStorage(storage.NewRedis(client, *prefix)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	navigateStats := runNavigatePhase(ctx, store, *ops, *concurrency)
	loginStats := runLoginPhase(ctx, store, *logins, *concurrency)
	notifyStats := runNotifyPhase(store, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("navigate", navigateStats)
	printStats("login", loginStats)
	printStats("notify", notifyStats)

	m := store.MetricsSnapshot()
	fmt.Printf("store: login_success=%d login_failure=%d logout=%d notifications_shown=%d\n",
		m.Counters[goConsole.MetricLoginSuccess],
		m.Counters[goConsole.MetricLoginFailure],
		m.Counters[goConsole.MetricLogout],
		m.Counters[goConsole.MetricNotificationShown],
	)
}

func startAPI() (*httptest.Server, error) {
	iss, err := token.NewIssuer(token.IssuerConfig{Secret: []byte("loadtest"), TTL: time.Hour})
	if err != nil {
		return nil, err
	}
	api, err := mockapi.New(mockapi.Config{
		Issuer: iss,
		Accounts: []mockapi.Account{
			{Username: "admin", Password: "admin", IsAdmin: true},
			{Username: "operator", Password: "operator"},
		},
	})
	if err != nil {
		return nil, err
	}
	return httptest.NewServer(api), nil
}

// runNavigatePhase resolves random paths while one goroutine keeps logging
// in and out.
func runNavigatePhase(ctx context.Context, store *goConsole.Store, ops, concurrency int) phaseStats {
	guard := router.NewGuard(router.DefaultTable(), store)
	var (
		workers   = pool.New().WithMaxGoroutines(concurrency)
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
		done      = make(chan struct{})
	)

	churnDone := make(chan struct{})
	go func() {
		defer close(churnDone)
		creds := []goConsole.Credentials{{Username: "admin", Password: "admin"}, {Username: "operator", Password: "operator"}}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			_, _ = store.Login(ctx, creds[i%len(creds)])
			_ = store.Logout(ctx)
		}
	}()

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		workers.Go(func() {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				p := paths[r.Intn(len(paths))]
				t0 := time.Now()
				d, err := guard.Resolve(p)
				elapsed := time.Since(t0)
				if err != nil || (d.Outcome == router.NotFound && p != "/missing") {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		})
	}
	workers.Wait()
	total := time.Since(start)
	close(done)
	<-churnDone
	return computeStats(total, latencies, failures)
}

// runLoginPhase performs full logins, argon2 verification included. Every
// tenth attempt uses a wrong password and must fail as invalid credentials.
func runLoginPhase(ctx context.Context, store *goConsole.Store, logins, concurrency int) phaseStats {
	var (
		workers   = pool.New().WithMaxGoroutines(concurrency)
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, logins)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		workers.Go(func() {
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= logins {
					return
				}
				creds := goConsole.Credentials{Username: "operator", Password: "operator"}
				if i%10 == 0 {
					creds.Password = "wrong"
				}
				t0 := time.Now()
				_, err := store.Login(ctx, creds)
				elapsed := time.Since(t0)
				wantErr := creds.Password == "wrong"
				if (err != nil) != wantErr || (wantErr && !errors.Is(err, goConsole.ErrInvalidCredentials)) {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		})
	}
	workers.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runNotifyPhase(store *goConsole.Store, ops, concurrency int) phaseStats {
	var (
		workers   = pool.New().WithMaxGoroutines(concurrency)
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		workers.Go(func() {
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				n, err := store.ShowNotification(goConsole.NotificationPayload{Message: "load"})
				if err == nil && i%2 == 0 && !store.RemoveNotification(n.ID) {
					err = errors.New("notification vanished before its lifetime")
				}
				elapsed := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}
		})
	}
	workers.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
