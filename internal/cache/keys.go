package cache

import "fmt"

const KeyStations = "stations"

func KeyTrains(origin, destination string) string {
	return fmt.Sprintf("trains:%q:%q", origin, destination)
}
