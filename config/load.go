package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

func Load() App {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("JWT_SECRET", "local_dev_secret")
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("TIMEZONE", "Asia/Ho_Chi_Minh")
	v.SetDefault("FINE_PER_DAY", 5000)
	v.SetDefault("LOST_FINE_AMOUNT", 100000)
	v.SetDefault("LOAN_LIMIT", 5)
	v.SetDefault("REVOKE_DB_PATH", "./data/revoked")

	cfg := App{
		Port:        v.GetString("APP_PORT"),
		DatabaseURL: must(v, "DATABASE_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		Env:         v.GetString("APP_ENV"),
		Timezone:    v.GetString("TIMEZONE"),
		FinePerDay:  v.GetInt64("FINE_PER_DAY"),
		LostFine:    v.GetInt64("LOST_FINE_AMOUNT"),
		LoanLimit:   v.GetInt64("LOAN_LIMIT"),
		RevokePath:  v.GetString("REVOKE_DB_PATH"),
		PickupSweep: v.GetString("PICKUP_SWEEP_CRON"),
	}
	return cfg
}

func must(v *viper.Viper, k string) string {
	s := v.GetString(k)
	if s == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return s
}
