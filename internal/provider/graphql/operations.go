package graphql

const (
	OpSyncHealthTotals  = "SyncHealthTotals"
	OpDailySummary      = "DailySummary"
	OpProduct           = "Product"
	OpLogMeal           = "LogMeal"
	timestampLayout     = "2006-01-02T15:04:05.000Z07:00"
	syncHealthTotalsDoc = `mutation SyncHealthTotals($input: HealthTotalsInput!) {
  syncHealthTotals(input: $input) {
    accepted
    duplicate
    reset
    delta {
      stepsDelta
      caloriesOutDelta
      stepsTotal
      caloriesOutTotal
    }
  }
}`
	dailySummaryDoc = `query DailySummary($userId: String!, $date: String!) {
  dailySummary(userId: $userId, date: $date) {
    calories
    userId
    carbs
    date
    fat
    meals
    protein
    sodium
    sugar
    fiber
    caloriesDeficit
    activityEvents
    activityCaloriesOut
    caloriesReplenishedPercent
    activitySteps
  }
}`
	productDoc = `query Product($barcode: String!) {
  product(barcode: $barcode) {
    barcode
    name
    brand
    calories
    carbs
    fat
    fiber
    protein
    sodium
    sugar
  }
}`
	logMealDoc = `mutation LogMeal($input: MealInput!) {
  logMeal(input: $input) {
    id
    userId
    name
    barcode
    quantityG
    timestamp
    calories
    carbs
    fat
    fiber
    protein
    sodium
    sugar
  }
}`
)
