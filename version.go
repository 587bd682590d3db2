// Package ember holds engine-wide identity constants that don't belong
// to any one subsystem — currently just the version string a host can
// report without touching a manifest or a running Context.
package ember

// Version is Ember's engine version string (mjs_get_version in the
// original, which returns a fixed MIKOJS_VERSION_STRING build constant).
const Version = "0.1.0"
