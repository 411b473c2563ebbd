// Package session keeps warehouse sessions in memory and on disk.
//
// A session pairs one engine with the scenario it was created from and
// the wide flag it was created with. Manager stores sessions under
// case-insensitive IDs and lazily restores sessions that only exist on
// disk. Generated IDs are four hex characters; caller-supplied IDs must
// match [A-Za-z0-9_-]{1,64} because they double as file names.
//
// FilePersistence writes one JSON document per session. The document
// records the scenario by config ID, so a restored session is rebuilt
// from the current scenario file plus the saved grid, script cursor and
// history:
//
//	fp, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(fp)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", scenario, true)
//
// Manager is safe for concurrent use. The engines it hands out are not;
// the service layer serializes access to each one.
package session
