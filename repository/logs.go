package repository

// Write writes a raw marshaled log record to the logs table. It implements
// io.Writer so the DataBase can serve as a sink of the logging Helper.
func (db DataBase) Write(p []byte) (n int, err error) {
	if _, err := db.inner.Exec("INSERT INTO logs (log) VALUES ($1)", p); err != nil {
		return 0, ErrInsertFailed
	}
	return len(p), nil
}

// ReadLastNLogs reads the last n raw log records, newest first.
func (db DataBase) ReadLastNLogs(n int) ([][]byte, error) {
	rows, err := db.inner.Query("SELECT log FROM logs ORDER BY id DESC LIMIT $1", n)
	if err != nil {
		return nil, ErrSelectFailed
	}
	defer rows.Close()

	var logs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, ErrScanFailed
		}
		logs = append(logs, raw)
	}
	return logs, nil
}
