// Package iocli абстрагирует терминальный ввод-вывод CLI folio: prompts
// для register, login и passwd, вывод status и whoami.
package iocli

// IO is the terminal seen by the folio CLI commands. Passwords are always
// read through ReadPassword, never ReadInput, so they are not echoed.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
