package service

//go:generate mockgen -source=./notifier.go -destination=../mocks/mock_status_notifier.go -package=mocks StatusNotifier
//go:generate mockgen -source=./relation_sync.go -destination=../mocks/mock_relation_writer.go -package=mocks RelationWriter
