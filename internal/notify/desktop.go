package notify

import (
	"log"

	"github.com/gen2brain/beeep"
)

// Desktop renders notifications through the OS notification surface.
// Delivery is best-effort; failures are logged and dropped.
type Desktop struct {
	// AppIcon is an optional path to an icon file shown with the
	// notification.
	AppIcon string
}

func (d *Desktop) Notify(title, body, sound string) {
	var err error
	if sound != "" {
		// beeep can't select a named sound; Alert at least plays the
		// platform alert sound alongside the banner.
		err = beeep.Alert(title, body, d.AppIcon)
	} else {
		err = beeep.Notify(title, body, d.AppIcon)
	}
	if err != nil {
		log.Printf("[notify] desktop notification failed: %v", err)
	}
}
