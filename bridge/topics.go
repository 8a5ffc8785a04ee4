package bridge

import "fmt"

// Topics builds the MQTT topic names under a configurable prefix,
// matching the Home Assistant alarm panel convention: state topics
// under <prefix>/get, commands on <prefix>/set. Numbered topics use
// plain decimal, 1-based, no padding.
type Topics struct {
	Prefix string
}

func (t Topics) Partition(n int) string {
	return fmt.Sprintf("%s/get/partition%d", t.Prefix, n)
}

func (t Topics) Fire(n int) string {
	return fmt.Sprintf("%s/get/fire%d", t.Prefix, n)
}

func (t Topics) Zone(n int) string {
	return fmt.Sprintf("%s/get/zone%d", t.Prefix, n)
}

func (t Topics) PGM(n int) string {
	return fmt.Sprintf("%s/get/pgm%d", t.Prefix, n)
}

func (t Topics) Trouble() string {
	return t.Prefix + "/get/trouble"
}

func (t Topics) Available() string {
	return t.Prefix + "/get/available"
}

func (t Topics) Set() string {
	return t.Prefix + "/set"
}
