package main

import "github.com/longomatch/gstreamer-packager/cmd/gst-deps/cmd"

func main() {
	cmd.Execute()
}
