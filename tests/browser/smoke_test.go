package browser_test

import (
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
)

// TestSmoke_SessionOverlay opens an activity's sessions and dismisses them.
func TestSmoke_SessionOverlay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/"); err != nil {
		t.Fatalf("goto index: %v", err)
	}
	if err := page.Locator(".activity-link").First().Click(); err != nil {
		t.Fatalf("click activity: %v", err)
	}
	waitFor(t, page, "#session-overlay.is-visible", playwright.WaitForSelectorStateVisible)

	text, err := page.Locator(".session-list").TextContent()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Monday at 09:00", "3 places left", "Fully booked"} {
		if !strings.Contains(text, want) {
			t.Errorf("overlay missing %q: %q", want, text)
		}
	}
	if n, _ := page.Locator(".session-entry.is-full a").Count(); n != 0 {
		t.Errorf("full session has %d booking links", n)
	}

	if err := page.Locator("button.overlay-close").Click(); err != nil {
		t.Fatalf("click close: %v", err)
	}
	waitFor(t, page, "#session-overlay", playwright.WaitForSelectorStateHidden)
}

// TestSmoke_ReleaseBooking releases a booking from the staff table.
func TestSmoke_ReleaseBooking(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/staff/sessions/12/bookings"); err != nil {
		t.Fatalf("goto bookings: %v", err)
	}
	waitFor(t, page, "#booking-42", playwright.WaitForSelectorStateVisible)

	if err := page.Locator(`#booking-42 button[value="release"]`).Click(); err != nil {
		t.Fatalf("click release: %v", err)
	}
	waitFor(t, page, "#booking-42", playwright.WaitForSelectorStateDetached)
	waitFor(t, page, "#booking-41", playwright.WaitForSelectorStateVisible)

	note, err := page.Locator("#notification").TextContent()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(note, "Booking released") {
		t.Errorf("notification = %q", note)
	}
}

// TestSmoke_OverlayFetchFailures shows an error entry when the sessions
// request fails, for both an error status and an unreachable front.
func TestSmoke_OverlayFetchFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newTestApp(t)

	tests := []struct {
		name    string
		handler func(playwright.Route)
		want    string
	}{
		{
			name: "server error",
			handler: func(route playwright.Route) {
				route.Fulfill(playwright.RouteFulfillOptions{
					Status:      playwright.Int(500),
					ContentType: playwright.String("text/plain"),
					Body:        "internal server error",
				})
			},
			want: "Please try again later. (HTTP 500)",
		},
		{
			name:    "unreachable",
			handler: func(route playwright.Route) { route.Abort() },
			want:    "Please check your connection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := app.newPage(t)
			if err := page.Route("**/activities/*/sessions*", tt.handler); err != nil {
				t.Fatalf("route: %v", err)
			}
			if _, err := page.Goto(app.BaseURL + "/"); err != nil {
				t.Fatalf("goto index: %v", err)
			}
			if err := page.Locator(".activity-link").First().Click(); err != nil {
				t.Fatalf("click activity: %v", err)
			}
			waitFor(t, page, "#session-overlay.is-visible .session-error", playwright.WaitForSelectorStateVisible)

			text, err := page.Locator(".session-error").TextContent()
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("error entry = %q, want it to contain %q", text, tt.want)
			}
			if strings.Contains(text, "internal server error") {
				t.Error("raw response body rendered into the overlay")
			}

			if err := page.Locator("button.overlay-close").Click(); err != nil {
				t.Fatalf("click close: %v", err)
			}
			waitFor(t, page, "#session-overlay", playwright.WaitForSelectorStateHidden)
		})
	}
}
