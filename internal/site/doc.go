// Package site runs a lava build: it loads partials and templates, copies the
// asset tree and renders every page into the destination, recording what
// happened in a Report.
//
// A build is a fixed sequence of stages. Setup failures (destination not
// creatable, templates or partials directory unreadable) abort the build with
// a fatal classified error. Problems with a single page or asset are recorded
// as report issues and the build carries on.
package site
