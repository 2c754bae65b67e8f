package config

import "flag"

// newFlagSet объявляет флаги командной строки. Значения пишутся в отдельный
// Config, а в итоговый переносятся только явно заданные флаги, чтобы
// default флага не перетирал файл и окружение.
//
// Флаги:
//
//	-config string             путь к TOML файлу
//	-addr string               адрес HTTP сервера
//	-db-driver string          sqlite или postgres
//	-db-dsn string             DSN базы данных
//	-access-ttl duration       время жизни access token
//	-refresh-ttl duration      время жизни refresh token ("7d" допустимо)
//	-password-min-length int   минимальная длина пароля
//	-bcrypt-cost int           cost bcrypt
//	-log-level string          debug, info, warn, error
//	-trust-proxy-headers       брать IP клиента из X-Forwarded-For (только за прокси)
//	-bootstrap-admin string    email пользователя, которому выдать роль admin
//	-version                   показать версию и выйти
//
// Секрет подписи через флаг не принимается: он попал бы в список процессов.
func newFlagSet() (*flag.FlagSet, *Config) {
	cli := &Config{}
	fs := flag.NewFlagSet("folio-server", flag.ContinueOnError)

	fs.StringVar(&cli.ConfigFile, "config", "", "path to TOML config file")
	fs.StringVar(&cli.Addr, "addr", "", "HTTP listen address")
	fs.StringVar(&cli.DatabaseDriver, "db-driver", "", "database driver: sqlite or postgres")
	fs.StringVar(&cli.DatabaseDSN, "db-dsn", "", "database DSN")
	fs.Var(durationFlag{&cli.AccessTokenTTL}, "access-ttl", "access token lifetime")
	fs.Var(durationFlag{&cli.RefreshTokenTTL}, "refresh-ttl", "refresh token lifetime")
	fs.IntVar(&cli.PasswordMinLength, "password-min-length", 0, "minimum password length")
	fs.IntVar(&cli.BcryptCost, "bcrypt-cost", 0, "bcrypt cost")
	fs.StringVar(&cli.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&cli.TrustProxyHeaders, "trust-proxy-headers", false, "key rate limits on X-Forwarded-For/X-Real-IP (enable only behind a reverse proxy)")
	fs.StringVar(&cli.BootstrapAdmin, "bootstrap-admin", "", "promote the user with this email to admin and continue")
	fs.BoolVar(&cli.ShowVersion, "version", false, "show version information")

	return fs, cli
}

// applyFlags переносит явно заданные флаги из cli в cfg
func applyFlags(cfg *Config, fs *flag.FlagSet, cli *Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = cli.Addr
		case "db-driver":
			cfg.DatabaseDriver = cli.DatabaseDriver
		case "db-dsn":
			cfg.DatabaseDSN = cli.DatabaseDSN
		case "access-ttl":
			cfg.AccessTokenTTL = cli.AccessTokenTTL
		case "refresh-ttl":
			cfg.RefreshTokenTTL = cli.RefreshTokenTTL
		case "password-min-length":
			cfg.PasswordMinLength = cli.PasswordMinLength
		case "bcrypt-cost":
			cfg.BcryptCost = cli.BcryptCost
		case "log-level":
			cfg.LogLevel = cli.LogLevel
		case "trust-proxy-headers":
			cfg.TrustProxyHeaders = cli.TrustProxyHeaders
		case "bootstrap-admin":
			cfg.BootstrapAdmin = cli.BootstrapAdmin
		}
	})
}
