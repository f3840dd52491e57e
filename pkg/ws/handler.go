package ws

// ConnectionHandler получает уведомления о подключении и отключении.
// Методы вызываются только из Server.Update и Server.Disconnect.
type ConnectionHandler interface {
	HandleConnect(c Connection)
	HandleDisconnect(c Connection)
}

// HandlerFuncs позволяет использовать пару обычных функций как
// ConnectionHandler. Nil поля пропускаются.
type HandlerFuncs struct {
	OnConnect    func(Connection)
	OnDisconnect func(Connection)
}

func (h HandlerFuncs) HandleConnect(c Connection) {
	if h.OnConnect != nil {
		h.OnConnect(c)
	}
}

func (h HandlerFuncs) HandleDisconnect(c Connection) {
	if h.OnDisconnect != nil {
		h.OnDisconnect(c)
	}
}
