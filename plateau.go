/*
Package plateau holds the application level configuration and shared
resources for the plateau change point analysis tool.
*/
package plateau

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

// QueueCapacity bounds the number of pending analysis jobs.
const QueueCapacity = 1024
