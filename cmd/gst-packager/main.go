package main

import "github.com/longomatch/gstreamer-packager/cmd/gst-packager/cmd"

func main() {
	cmd.Execute()
}
