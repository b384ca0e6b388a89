package main

import "github.com/longomatch/gstreamer-packager/cmd/gst-relocator/cmd"

func main() {
	cmd.Execute()
}
