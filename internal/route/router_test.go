package route

import (
	"testing"

	"github.com/arbscan/arbscan/internal/models"
)

func legs(bookmakers ...string) []models.Leg {
	out := make([]models.Leg, len(bookmakers))
	for i, b := range bookmakers {
		out[i] = models.Leg{Bookmaker: b}
	}
	return out
}

func testRouter() *Router {
	return New([]Rule{
		{Keyword: "pinnacle", Channel: "-100111"},
		{Keyword: "stake", Channel: "-100222"},
	}, "-100333", "-100999")
}

func TestSelect_PriorityOrder(t *testing.T) {
	r := testRouter()

	// Pinnacle outranks Stake regardless of leg order.
	if got := r.Select(legs("Stake", "Pinnacle")); got != "-100111" {
		t.Errorf("Select = %q, want pinnacle channel", got)
	}
	if got := r.Select(legs("Pinnacle", "bet365")); got != "-100111" {
		t.Errorf("Select = %q, want pinnacle channel", got)
	}
	if got := r.Select(legs("bet365", "Stake")); got != "-100222" {
		t.Errorf("Select = %q, want stake channel", got)
	}
}

func TestSelect_KeywordMatchIsCaseInsensitiveSubstring(t *testing.T) {
	r := testRouter()
	if got := r.Select(legs("PINNACLE Sports", "bet365")); got != "-100111" {
		t.Errorf("Select = %q, want pinnacle channel", got)
	}
}

func TestSelect_FallsBackToCategoryDefault(t *testing.T) {
	r := testRouter()
	if got := r.Select(legs("bet365", "1xBet")); got != "-100333" {
		t.Errorf("Select = %q, want category default", got)
	}
}

func TestSelect_FallsBackToGlobalDefault(t *testing.T) {
	r := New([]Rule{{Keyword: "pinnacle", Channel: "-100111"}}, "", "-100999")
	if got := r.Select(legs("bet365")); got != "-100999" {
		t.Errorf("Select = %q, want global default", got)
	}
}

func TestSelect_FailsClosed(t *testing.T) {
	r := New(nil, "", "")
	if got := r.Select(legs("bet365")); got != NoChannel {
		t.Errorf("Select = %q, want NoChannel", got)
	}
}

func TestNew_DropsBlankRules(t *testing.T) {
	r := New([]Rule{
		{Keyword: "", Channel: "-1"},
		{Keyword: "stake", Channel: ""},
		{Keyword: "stake", Channel: "-2"},
	}, "", "")
	if got := r.Select(legs("Stake")); got != "-2" {
		t.Errorf("Select = %q, want -2", got)
	}
}
