// Package identity valida los datos de quien retira y de quien confiere una
// colecta: forma del nombre y dígitos verificadores del documento.
package identity

import (
	"fmt"
	"strings"
	"unicode"
)

const documentLength = 11

// ValidateName valida un nombre simple: al menos 3 caracteres útiles y solo
// letras, espacios, apóstrofes o guiones.
func ValidateName(name string) error {
	clean := strings.TrimSpace(name)
	if len([]rune(clean)) < 3 {
		return fmt.Errorf("identity: el nombre debe tener al menos 3 caracteres")
	}
	for _, r := range clean {
		if unicode.IsLetter(r) || r == ' ' || r == '\'' || r == '-' {
			continue
		}
		return fmt.Errorf("identity: el nombre contiene el carácter inválido %q", r)
	}
	return nil
}

// NormalizeDocument elimina puntos y guiones del documento y valida sus dos
// dígitos verificadores (módulo 11). Devuelve los 11 dígitos normalizados.
// Acepta "529.982.247-25" o "52998224725".
func NormalizeDocument(document string) (string, error) {
	digits := extractDigits(document)
	if len(digits) != documentLength {
		return "", fmt.Errorf("identity: el documento debe tener %d dígitos, se encontraron %d",
			documentLength, len(digits))
	}
	if allEqual(digits) {
		// Secuencias repetidas ("111...1") pasan el módulo 11 pero no son
		// documentos emitidos; se rechazan explícitamente.
		return "", fmt.Errorf("identity: documento con todos los dígitos repetidos")
	}
	for _, size := range []int{9, 10} {
		var sum int
		for i := 0; i < size; i++ {
			sum += int(digits[i]-'0') * ((size + 1) - i)
		}
		check := (sum * 10) % 11
		if check == 10 {
			check = 0
		}
		if byte('0'+check) != digits[size] {
			return "", fmt.Errorf("identity: dígito de verificación inválido: esperado %d, recibido %c",
				check, digits[size])
		}
	}
	return string(digits), nil
}

// MaskDocument enmascara un documento para logs, mostrando solo inicio y fin
// (ej. "529.***.***-25"). Nunca registrar el documento completo.
func MaskDocument(document string) string {
	digits := extractDigits(document)
	if len(digits) != documentLength {
		if len(digits) >= 2 {
			return "***" + string(digits[len(digits)-2:])
		}
		return "***"
	}
	return fmt.Sprintf("%s.***.***-%s", digits[:3], digits[9:])
}

// FormatDocument formatea un documento normalizado como XXX.XXX.XXX-XX.
func FormatDocument(document string) string {
	digits := extractDigits(document)
	if len(digits) != documentLength {
		return document
	}
	return fmt.Sprintf("%s.%s.%s-%s", digits[:3], digits[3:6], digits[6:9], digits[9:])
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}

func allEqual(digits []byte) bool {
	for _, d := range digits {
		if d != digits[0] {
			return false
		}
	}
	return true
}
