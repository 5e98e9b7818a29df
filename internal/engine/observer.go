package engine

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil fields are skipped. Register it by pointer.
type ObserverFuncs struct {
	GameStart func(g *Game)
	Update    func(g *Game)
	GameOver  func(g *Game)
}

// OnGameStart implements Observer.
func (o *ObserverFuncs) OnGameStart(g *Game) {
	if o.GameStart != nil {
		o.GameStart(g)
	}
}

// OnUpdate implements Observer.
func (o *ObserverFuncs) OnUpdate(g *Game) {
	if o.Update != nil {
		o.Update(g)
	}
}

// OnGameOver implements Observer.
func (o *ObserverFuncs) OnGameOver(g *Game) {
	if o.GameOver != nil {
		o.GameOver(g)
	}
}

// AddObserver appends an observer. Observers are notified in the order
// they were added and persist across episodes.
func (g *Game) AddObserver(o Observer) {
	g.observers = append(g.observers, o)
}

// RemoveObserver removes the first registration of o.
// Returns false if o was not registered.
func (g *Game) RemoveObserver(o Observer) bool {
	for i, existing := range g.observers {
		if existing == o {
			g.observers = append(g.observers[:i:i], g.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Observers returns the number of registered observers.
func (g *Game) Observers() int {
	return len(g.observers)
}

func (g *Game) notify(event string, fn func(Observer)) {
	for i, o := range g.observers {
		// One failing observer must not stop the game or the others.
		func() {
			defer func() {
				if r := recover(); r != nil {
					g.logger.Error("observer panicked",
						"event", event,
						"observer", i,
						"panic", r,
					)
				}
			}()
			fn(o)
		}()
	}
}

func (g *Game) notifyGameStart() {
	g.notify("game_start", func(o Observer) { o.OnGameStart(g) })
}

func (g *Game) notifyUpdate() {
	g.notify("update", func(o Observer) { o.OnUpdate(g) })
}

func (g *Game) notifyGameOver() {
	g.notify("game_over", func(o Observer) { o.OnGameOver(g) })
}
