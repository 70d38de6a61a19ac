package services

// betweenness berechnet die Betweenness-Zentralität nach Brandes für einen ungewichteten,
// ungerichteten Graphen, normiert mit 1/((n-1)(n-2)). Ergebnis liegt in [0,1].
func betweenness(ids []string, adj map[string][]string) map[string]float64 {
	n := len(ids)
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	neighbors := make([][]int, n)
	for i, id := range ids {
		for _, w := range adj[id] {
			neighbors[i] = append(neighbors[i], index[w])
		}
	}

	cb := make([]float64, n)
	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	pred := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i], dist[i], delta[i] = 0, -1, 0
			pred[i] = pred[i][:0]
		}
		sigma[s], dist[s] = 1, 0
		stack, queue = stack[:0], append(queue[:0], s)

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range neighbors[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}

	out := make(map[string]float64, n)
	scale := 0.0
	if n > 2 {
		scale = 1 / float64((n-1)*(n-2))
	}
	for i, id := range ids {
		out[id] = cb[i] * scale
	}
	return out
}
