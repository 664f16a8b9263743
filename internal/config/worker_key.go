package config

type WorkerKeyStruct struct {
	PersistEventsQueue  string
	PersistAlertsQueue  string
	ArchiveSummaryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistEventsQueue:  "persist_events_queue",
	PersistAlertsQueue:  "persist_alerts_queue",
	ArchiveSummaryQueue: "archive_summary_queue",
}
