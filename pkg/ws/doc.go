// Package ws предоставляет однопоточные WebSocket сервер и клиент для обмена
// текстом с опросной моделью:
//   - Весь сетевой ввод-вывод выполняется в фоне, а его результаты применяются
//     только внутри Update (без блокировок в коде приложения)
//   - Порядок сообщений сохраняется в пределах одного соединения
//   - Идентификаторы соединений уникальны и не переиспользуются
//   - Уведомления о подключении и отключении приходят ровно один раз
//
// # Сервер
//
//	server, err := ws.NewServer(ws.DefaultServerConfig(4002, html),
//	    func(c ws.Connection) { clients[c] = struct{}{} },
//	    func(c ws.Connection) { delete(clients, c) },
//	)
//	for {
//	    if err := server.Update(); err != nil {
//	        break
//	    }
//	    for _, msg := range server.Receive() {
//	        server.Send([]ws.Message{{Connection: msg.Connection, Text: msg.Text}})
//	    }
//	}
//
// Обычные HTTP запросы GET и HEAD к "/" или "*/index.html" получают настроенный
// HTML, остальные — 400 Bad Request. Такие ответы пишутся в горутине запроса
// и не задерживают Update. Запросы с заголовками Upgrade становятся WebSocket
// соединениями; обработчик подключения вызывается в первом Update после
// рукопожатия.
//
// # Клиент
//
//	client := ws.NewClient(ws.DefaultClientConfig("localhost", "4002"))
//	defer client.Close()
//	client.Send("hello")
//	for !client.IsDisconnected() {
//	    if err := client.Update(); err != nil {
//	        break
//	    }
//	    fmt.Print(client.Receive())
//	}
//
// # Ошибки
//
// Ошибки отдельных соединений не возвращаются: они приводят к отключению,
// которое видно через обработчик отключения (сервер) или IsDisconnected
// (клиент). Update возвращает ошибку только при отказе транспорта целиком.
//
// По умолчанию таймаутов нет: собеседник, который перестал читать, занимает
// своё соединение бесконечно. ServerConfig.WriteTimeout отключает таких
// собеседников с ошибкой записи. Close очищает реестр без уведомлений.
package ws
