package iocli

// IO вывод CLI; подменяется в тестах
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	Write(p []byte) (n int, err error)
	// IsTerminal сообщает, выводится ли результат в терминал
	IsTerminal() bool
}
