package healthsync

import (
	"fmt"
	"io"
	"math"

	"github.com/saadjs/healthsync/internal/model"
	"github.com/saadjs/healthsync/internal/state"
)

func printTotals(w io.Writer, t model.HealthTotals) {
	fmt.Fprintf(w, "Steps: %d\n", t.Steps)
	fmt.Fprintf(w, "Active: %.1f kcal\n", t.ActiveEnergy)
	fmt.Fprintf(w, "Resting: %.1f kcal\n", t.RestingEnergy)
	fmt.Fprintf(w, "Total out: %.1f kcal\n", t.TotalEnergy())
}

// energySplit returns the active and resting shares of total energy in
// whole percent. Both are 0 when nothing was burned.
func energySplit(t model.HealthTotals) (active, resting int) {
	total := t.TotalEnergy()
	if total <= 0 {
		return 0, 0
	}
	active = int(math.Round(t.ActiveEnergy / total * 100))
	return active, 100 - active
}

func printSyncResult(w io.Writer, r model.SyncResult) {
	switch {
	case r.Duplicate:
		fmt.Fprintln(w, "Result: already synced")
	case r.Reset:
		fmt.Fprintln(w, "Result: synced (device counter reset)")
	case r.Accepted:
		fmt.Fprintln(w, "Result: synced")
	default:
		fmt.Fprintln(w, "Result: not accepted")
	}
	d := r.Delta
	fmt.Fprintf(w, "Delta: %+d steps | %+.1f kcal\n", d.StepsDelta, d.CaloriesOutDelta)
	fmt.Fprintf(w, "Server totals: %d steps | %.1f kcal\n", d.StepsTotal, d.CaloriesOutTotal)
}

func printSummary(w io.Writer, s model.DailySummary) {
	fmt.Fprintf(w, "Date: %s\n", s.Date)
	fmt.Fprintf(w, "Intake: %d kcal over %d meal(s)\n", s.Calories, s.Meals)
	fmt.Fprintf(w, "Macros: P %.1fg | C %.1fg | F %.1fg\n", s.Protein, s.Carbs, s.Fat)
	fmt.Fprintf(w, "Sugar %.1fg | Fiber %.1fg | Sodium %.1fg\n", s.Sugar, s.Fiber, s.Sodium)
	fmt.Fprintf(w, "Activity: %d steps | %.1f kcal out | %d event(s)\n", s.ActivitySteps, s.ActivityCaloriesOut, s.ActivityEvents)
	switch {
	case s.CaloriesDeficit > 0:
		fmt.Fprintf(w, "Deficit: %d kcal\n", s.CaloriesDeficit)
	case s.CaloriesDeficit < 0:
		fmt.Fprintf(w, "Surplus: %d kcal\n", -s.CaloriesDeficit)
	default:
		fmt.Fprintln(w, "Balance: even")
	}
	fmt.Fprintf(w, "Replenished: %d%%\n", s.CaloriesReplenishedPercent)
}

func printProduct(w io.Writer, p model.ProductInfo) {
	fmt.Fprintf(w, "Barcode: %s\n", p.Barcode)
	fmt.Fprintf(w, "Name: %s\n", p.Name)
	if p.Brand != nil {
		fmt.Fprintf(w, "Brand: %s\n", *p.Brand)
	}
	if p.Calories != nil {
		fmt.Fprintf(w, "Calories: %d kcal/100g\n", *p.Calories)
	}
	for _, n := range []struct {
		label string
		value *float64
	}{
		{"Carbs", p.Carbs},
		{"Fat", p.Fat},
		{"Fiber", p.Fiber},
		{"Protein", p.Protein},
		{"Sodium", p.Sodium},
		{"Sugar", p.Sugar},
	} {
		if n.value != nil {
			fmt.Fprintf(w, "%s: %.1fg/100g\n", n.label, *n.value)
		}
	}
}

func printMeal(w io.Writer, m model.MealRecord) {
	fmt.Fprintf(w, "Logged meal %s: %s (%s) %.1fg\n", m.ID, m.Name, m.Barcode, m.QuantityG)
	fmt.Fprintf(w, "Calories: %d | P %.1fg | C %.1fg | F %.1fg\n", m.Calories, m.Protein, m.Carbs, m.Fat)
}

// statusLine renders the footer shown after a sync or meal: last sync time
// and the latest status message.
func statusLine(st state.State) string {
	last := "never"
	if !st.LastSync.IsZero() {
		last = st.LastSync.Format("15:04")
	}
	if st.Status == "" {
		return fmt.Sprintf("Last sync: %s", last)
	}
	return fmt.Sprintf("Last sync: %s | %s", last, st.Status)
}
