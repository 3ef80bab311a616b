package common

import "errors"

// ErrNotFound - строки нет; репозиторий сам решает, ошибка это или пустое значение.
var ErrNotFound = errors.New("entity not found")
