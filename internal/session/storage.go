package session

// Storage — один долговременный слот, хранящий сериализованного принципала
// под фиксированным ключом. Записи перетирают друг друга (last-write-wins),
// версионирования и миграций нет.
//
// В веб-приложении слот привязан к cookie запроса/ответа, в тестах —
// к памяти. Store работает только через этот интерфейс и не знает,
// где именно лежат данные.
type Storage interface {
	// Read возвращает сериализованного принципала и признак его наличия.
	Read() (string, bool)
	// Write сохраняет сериализованного принципала.
	Write(value string)
	// Clear очищает слот. Безопасно вызывать для пустого слота.
	Clear()
}

// MemoryStorage — слот в памяти. Используется в тестах и как заглушка.
type MemoryStorage struct {
	value  string
	exists bool
}

// NewMemoryStorage создает пустой слот в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Read() (string, bool) {
	return m.value, m.exists
}

func (m *MemoryStorage) Write(value string) {
	m.value = value
	m.exists = true
}

func (m *MemoryStorage) Clear() {
	m.value = ""
	m.exists = false
}
