// Package domain contains the core business entities of the adaptive study
// scheduler: schedules, sessions, settings, subject priority inputs, content
// progress and exam results. Entities validate themselves and carry no
// persistence concerns; the scheduling algorithms live in the subpackages
// priority, energy, timewindow and spacedrep.
package domain
