package main

import "venuebook/internal/app"

// @title        VenueBook Auth API
// @version      1.0
// @description  Verification and session coordination for the VenueBook app.
// @BasePath     /
func main() {
	app.Run()
}
