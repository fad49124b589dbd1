/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package edge

import "github.com/nabbar/edge-sdk/model"

// diffServices compares the cached catalog against a freshly fetched one,
// keyed by Service.Id, and returns the disjoint added/changed/removed sets.
// Their union is exactly the symmetric difference of old and new; a name
// present in both is in changed iff Compare is non-zero.
func diffServices(oldCatalog, newCatalog map[string]model.Service) (added, changed, removed []model.Service) {
	for id, svc := range newCatalog {
		prev, existed := oldCatalog[id]
		if !existed {
			added = append(added, svc)
			continue
		}
		if prev.Compare(svc) != 0 {
			changed = append(changed, svc)
		}
	}
	for id, svc := range oldCatalog {
		if _, stillPresent := newCatalog[id]; !stillPresent {
			removed = append(removed, svc)
		}
	}
	return added, changed, removed
}

func catalogById(services []model.Service) map[string]model.Service {
	m := make(map[string]model.Service, len(services))
	for _, s := range services {
		m[s.Id] = s
	}
	return m
}
