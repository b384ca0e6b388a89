// Package packager drives the packaging workflow: installing build
// prerequisites, fetching and installing the upstream framework,
// building it from source, collecting the shared-library closure of
// the shipped plugins, relocating and stripping the binaries, and
// assembling versioned nuget packages.
//
// Rules map to the stages of the workflow and are invoked through the
// gst-packager CLI. Platform differences live behind the backend
// interface; the workflow itself is platform-neutral.
package packager
