package browser_test

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	"poolside/internal/adapters/bookingapi"
	web "poolside/internal/adapters/http"
	"poolside/internal/adapters/storage"
	auditStore "poolside/internal/adapters/storage/audit"
	"poolside/internal/adapters/view"
)

// testApp holds the running front, its fake booking server and Playwright handles.
type testApp struct {
	BaseURL  string
	Upstream *httptest.Server
	Server   *http.Server
	PW       *playwright.Playwright
	Browser  playwright.Browser
}

// fakeBookingServer answers the endpoints the front calls with fixed data.
func fakeBookingServer() http.Handler {
	mux := http.NewServeMux()
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, body)
		}
	}
	mux.Handle("GET /api/activities/", reply(`[{"id":7,"activity_name":"Aqua Fit","description":"Gentle *water* workout"}]`))
	mux.Handle("GET /bookings/api/sessions/7/", reply(`{"sessions":[{"id":1,"session_day":"Monday","start_time":"09:00","available_places":3},{"id":2,"session_day":"Tuesday","start_time":"18:00","available_places":0,"is_full":true}]}`))
	mux.Handle("GET /bookings/api/session/12/bookings/", reply(`{"bookings":[{"id":41,"first_name":"Ana","last_name":"Lee","number_of_people":1},{"id":42,"first_name":"Ben","last_name":"Ng","number_of_people":2}]}`))
	mux.Handle("POST /bookings/session/12/", reply(`{"status":"success","message":"Booking released"}`))
	mux.Handle("GET /api/timetable-data/", reply(`{"Monday":{"09:00":{"activity_name":"Free"}}}`))
	mux.Handle("POST /add_session/", reply(`{"success":true}`))
	return mux
}

// newTestApp wires the front against a fake booking server and starts a browser.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	upstream := httptest.NewServer(fakeBookingServer())

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	client, err := bookingapi.New(upstream.URL)
	if err != nil {
		t.Fatalf("bookingapi.New: %v", err)
	}
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	front := web.New(web.Deps{
		Client:   client,
		Audit:    auditStore.NewSQLiteStore(db),
		Renderer: renderer,
	}, web.Options{
		CSRFKey:        []byte(strings.Repeat("b", 32)),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
		RatePerSecond:  100,
		RateBurst:      100,
	})
	srv := &http.Server{Handler: front.Handler()}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		upstream.Close()
		db.Close()
	})

	return &testApp{
		BaseURL:  fmt.Sprintf("http://127.0.0.1:%d", port),
		Upstream: upstream,
		Server:   srv,
		PW:       pw,
		Browser:  browser,
	}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

func waitFor(t *testing.T, page playwright.Page, selector string, state *playwright.WaitForSelectorState) {
	t.Helper()
	err := page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(10000),
	})
	if err != nil {
		t.Fatalf("waiting for %s: %v", selector, err)
	}
}
