package model

import "time"

const DateLayout = "2006-01-02"

// HealthTotals is today's cumulative activity as read from the device.
type HealthTotals struct {
	Steps         int     `json:"steps"`
	ActiveEnergy  float64 `json:"active_energy_kcal"`
	RestingEnergy float64 `json:"resting_energy_kcal"`
}

func (t HealthTotals) TotalEnergy() float64 {
	return t.ActiveEnergy + t.RestingEnergy
}

// TotalsSubmission carries the caller-computed timestamp and calendar day
// alongside the totals being synced.
type TotalsSubmission struct {
	Totals    HealthTotals
	UserID    string
	Timestamp time.Time
	Date      string
}

type SyncDelta struct {
	StepsDelta       int     `json:"steps_delta"`
	CaloriesOutDelta float64 `json:"calories_out_delta"`
	StepsTotal       int     `json:"steps_total"`
	CaloriesOutTotal float64 `json:"calories_out_total"`
}

type SyncResult struct {
	Accepted  bool      `json:"accepted"`
	Duplicate bool      `json:"duplicate"`
	Reset     bool      `json:"reset"`
	Delta     SyncDelta `json:"delta"`
}

type DailySummary struct {
	UserID                     string  `json:"user_id"`
	Date                       string  `json:"date"`
	Calories                   int     `json:"calories"`
	Carbs                      float64 `json:"carbs"`
	Fat                        float64 `json:"fat"`
	Protein                    float64 `json:"protein"`
	Sugar                      float64 `json:"sugar"`
	Fiber                      float64 `json:"fiber"`
	Sodium                     float64 `json:"sodium"`
	Meals                      int     `json:"meals"`
	CaloriesDeficit            int     `json:"calories_deficit"`
	ActivityEvents             int     `json:"activity_events"`
	ActivityCaloriesOut        float64 `json:"activity_calories_out"`
	ActivitySteps              int     `json:"activity_steps"`
	CaloriesReplenishedPercent int     `json:"calories_replenished_percent"`
}

const UnknownProductName = "unknown"

// ProductInfo is a catalog record for one barcode; nutrition values are per 100 g
// and nil when the catalog does not carry them.
type ProductInfo struct {
	Barcode  string   `json:"barcode"`
	Name     string   `json:"name"`
	Brand    *string  `json:"brand,omitempty"`
	Calories *int     `json:"calories,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Fiber    *float64 `json:"fiber,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Sodium   *float64 `json:"sodium,omitempty"`
	Sugar    *float64 `json:"sugar,omitempty"`
}

const DefaultMealName = "Scanned product"

type MealLogRequest struct {
	Barcode       string
	QuantityGrams float64
	UserID        string
	Timestamp     time.Time
	Name          string
}

// MealRecord is the nutrient snapshot the server echoes for a logged meal.
type MealRecord struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Barcode   string  `json:"barcode"`
	QuantityG float64 `json:"quantity_g"`
	Timestamp string  `json:"timestamp"`
	Calories  int     `json:"calories"`
	Carbs     float64 `json:"carbs"`
	Fat       float64 `json:"fat"`
	Fiber     float64 `json:"fiber"`
	Protein   float64 `json:"protein"`
	Sodium    float64 `json:"sodium"`
	Sugar     float64 `json:"sugar"`
}

type SyncLogEntry struct {
	ID          int64
	SyncedAt    time.Time
	Date        string
	Steps       int
	CaloriesOut float64
	Outcome     string
	Message     string
	Result      *SyncResult
}

type PendingMeal struct {
	ID            string
	Barcode       string
	ProductName   string
	QuantityInput string
	LastError     string
	UpdatedAt     time.Time
}
