package filestorage

import (
	"bytes"
	"errors"
)

// ErrFileInfected возвращается сканером для зараженного содержимого.
var ErrFileInfected = errors.New("file infected")

// VirusScanner проверяет содержимое загружаемого файла. Реализация может
// обращаться к внешнему антивирусному демону; ядро от этого не зависит.
type VirusScanner interface {
	Scan(data []byte) error
}

// NopScanner пропускает любой файл. Используется, когда антивирусная
// проверка отключена конфигурацией.
type NopScanner struct{}

func (NopScanner) Scan(data []byte) error { return nil }

// eicarSignature - стандартная тестовая сигнатура EICAR.
var eicarSignature = []byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`)

// SignatureScanner - минимальный сканер по сигнатурам. В проде заменяется
// интеграцией с антивирусным демоном, в тестах ловит файл EICAR.
type SignatureScanner struct{}

func (SignatureScanner) Scan(data []byte) error {
	if bytes.Contains(data, eicarSignature) {
		return ErrFileInfected
	}
	return nil
}
