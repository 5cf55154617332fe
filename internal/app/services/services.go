package services

// Services defined in this package:
// - RecordService: student records, their attachments and the CSV export
// - AuthService: the admin and student login checks plus session tokens
