// Package core contains the 25Live client domain: credential and session
// contracts, the authenticated connection, the events repository and the
// orchestration service. Storage and transport adapters depend on this
// package; core must not depend on them.
package core
