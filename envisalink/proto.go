package envisalink

import (
	"fmt"
	"strings"
)

// TPI frames are ASCII lines: a three digit command, optional data,
// and a two digit uppercase hex checksum, terminated with CRLF. The
// checksum is the sum of the ASCII bytes of command+data, mod 256.

func checksum(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}
	return fmt.Sprintf("%02X", sum)
}

func encode(cmd, data string) []byte {
	body := cmd + data
	return []byte(body + checksum(body) + "\r\n")
}

func decode(line string) (cmd, data string, err error) {
	line = strings.TrimRight(line, "\r")
	if len(line) < 5 {
		return "", "", fmt.Errorf("frame too short: %q", line)
	}
	body, sum := line[:len(line)-2], line[len(line)-2:]
	if !strings.EqualFold(checksum(body), sum) {
		return "", "", fmt.Errorf("bad checksum: %q", line)
	}
	return body[:3], body[3:], nil
}
