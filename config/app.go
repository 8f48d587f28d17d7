package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Business policy. Time zone drives the date-only overdue comparison;
	// fine amounts are minor currency units.
	Timezone    string `env:"TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	FinePerDay  int64  `env:"FINE_PER_DAY" default:"5000"`
	LostFine    int64  `env:"LOST_FINE_AMOUNT" default:"100000"`
	LoanLimit   int64  `env:"LOAN_LIMIT" default:"5"`
	RevokePath  string `env:"REVOKE_DB_PATH" default:"./data/revoked"`
	PickupSweep string `env:"PICKUP_SWEEP_CRON"` // cron spec; empty disables the sweep
}
